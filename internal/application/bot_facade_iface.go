package application

// Translator is the slice of the i18n package the facade and dispatcher need.
// Tests pass a map-backed fake.
type Translator interface {
	T(key string, args ...interface{}) string
}
