// Package dynamo provides the numerical primitives shared by the plant model
// and its integrators:
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Configurable]: live parameter adjustment
//   - [Check]: dimension and finiteness check before integrating
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe.
package dynamo
