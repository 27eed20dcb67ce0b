// Package persist implements the self-describing JSON format the asset
// store keeps its state in.
//
// Values travel as ordinary JSON. Objects of registered types are wrapped
// in an envelope carrying everything needed to rebuild them:
//
//	{"object_source": [source, name, version, params]}
//
// where params holds the object's constructor parameters and may itself
// contain further envelopes. A null object_source denotes the Nothing
// sentinel, a serializable stand-in for "no value" that keeps nil usable
// as real data.
//
// Types are registered as Codec values, usually from init functions, so
// the set of constructible types is fixed when the binary is built; the
// format never causes code to be located or loaded at decode time. An
// envelope naming a type without a codec decodes into an Opaque carrier
// and survives re-encoding unchanged.
//
// Numbers decode as int when integral and float64 otherwise, so ids stay
// ids across a round trip. Codecs for time.Time, time.Duration and []byte
// ship with the package.
package persist
