// Package device defines the narrow client interface through which the engine
// talks to a vehicle. Implementations own transport, serialization and
// authentication; the engine only consumes outcomes and state snapshots.
package device

import (
	"context"

	"github.com/evsched/evsched/core/model"
)

// TempUnit selects the temperature scale used for climate commands.
type TempUnit string

const (
	UnitCelsius    TempUnit = "C"
	UnitFahrenheit TempUnit = "F"
)

// Client is the vehicle-side collaborator. QueryState may return an invalid
// snapshot when the vehicle is asleep; it must not block indefinitely.
type Client interface {
	QueryState(ctx context.Context) model.StateSnapshot

	// Wake sends a fire-and-forget wake signal. No return value is consulted;
	// the caller re-queries state to observe the effect.
	Wake(ctx context.Context)

	SetChargeTarget(ctx context.Context, percent int) model.Outcome
	StartCharging(ctx context.Context) model.Outcome
	StopCharging(ctx context.Context) model.Outcome

	SetTempC(ctx context.Context, low, high float64) model.Outcome
	SetTempF(ctx context.Context, low, high float64) model.Outcome
	StartClimate(ctx context.Context) model.Outcome
	StopClimate(ctx context.Context) model.Outcome
}
