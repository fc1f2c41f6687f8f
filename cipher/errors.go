package cipher

import "fmt"

// KeyLengthError is returned when a key does not match the sum of the
// register sizes
type KeyLengthError struct {
	Got, Want int
}

func (e *KeyLengthError) Error() string {
	return fmt.Sprintf("key has %d elements, cipher needs %d", e.Got, e.Want)
}

// IVLengthError is returned when an IV does not match the configured length
type IVLengthError struct {
	Got, Want int
}

func (e *IVLengthError) Error() string {
	return fmt.Sprintf("iv has %d elements, cipher needs %d", e.Got, e.Want)
}
