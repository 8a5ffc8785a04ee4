package keybus

// Virtual keypad keys understood by panel decoders. Disarm writes the
// access code instead of a fixed key.
const (
	KeyArmStay  = "s"
	KeyArmAway  = "w"
	KeyArmNight = "n"
	KeySilence  = "#"
	KeyPanic    = "p"
)

// Writer issues virtual keypad writes to the panel. Write must never
// block on panel readiness: callers check Ready first and drop or
// defer the request when the decoder cannot take it.
type Writer interface {
	Ready() bool
	Write(partition int, keys string) error
}

// Panel is the decoder collaborator: it drains panel bus traffic on
// its own, mutates the Status it owns, and accepts keypad writes.
type Panel interface {
	Writer
	Status() *Status
}
