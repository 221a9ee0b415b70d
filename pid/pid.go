// Package pid implements the stateful control law used to regulate air supply pressure.
// The regulator knows nothing about actuator limits. Callers compute a Prediction, decide how much of it to keep and
// Commit it, which lets the control loop freeze the integral term while the motor is stalled.
package pid

// Regulator is a discrete PID controller with the integral gain folded into the accumulated sum
type Regulator struct {
	GainP  float64
	GainI  float64
	GainD  float64
	Target float64

	integralSum     float64
	lastMeasurement float64
}

// Prediction is the outcome of one regulator tick that has not yet been applied
type Prediction struct {
	Output      float64
	Measurement float64
	Delta       float64
	IntegralSum float64
}

// New returns a Regulator with the given gains and a zero target
func New(p, i, d float64) *Regulator {
	return &Regulator{
		GainP: p,
		GainI: i,
		GainD: d,
	}
}

// SetTarget changes the setpoint without touching the accumulated state
func (r *Regulator) SetTarget(target float64) {
	r.Target = target
}

// Predict computes the output for measurement without mutating the regulator
func (r *Regulator) Predict(measurement float64) Prediction {
	delta := measurement - r.lastMeasurement
	err := r.Target - measurement
	integral := r.integralSum + err*r.GainI
	return Prediction{
		Output:      integral + r.GainP*err + r.GainD*delta,
		Measurement: measurement,
		Delta:       delta,
		IntegralSum: integral,
	}
}

// Commit applies every part of the prediction
func (r *Regulator) Commit(p Prediction) {
	r.lastMeasurement = p.Measurement
	r.integralSum = p.IntegralSum
}

// CommitFrozen applies the prediction but discards its integral accumulation
func (r *Regulator) CommitFrozen(p Prediction) {
	r.lastMeasurement = p.Measurement
}

// Step predicts and commits in one call
func (r *Regulator) Step(measurement float64) float64 {
	p := r.Predict(measurement)
	r.Commit(p)
	return p.Output
}

// IntegralSum returns the accumulated integral term
func (r *Regulator) IntegralSum() float64 {
	return r.integralSum
}

// LastMeasurement returns the measurement of the last committed tick
func (r *Regulator) LastMeasurement() float64 {
	return r.lastMeasurement
}
