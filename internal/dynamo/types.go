package dynamo

// Configurable exposes named float parameters to control surfaces.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
