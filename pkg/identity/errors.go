package identity

import "errors"

// Flatten breaks err into the messages of its constituent errors. Joined
// errors are expanded recursively, also when wrapped; any other error is a
// single message.
func Flatten(err error) []string {
	if err == nil {
		return nil
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if multi, ok := e.(interface{ Unwrap() []error }); ok {
			var messages []string
			for _, inner := range multi.Unwrap() {
				messages = append(messages, Flatten(inner)...)
			}
			return messages
		}
	}
	return []string{err.Error()}
}
