//go:build unit || e2e

package testutil

// Field is a DtoMap mutation that sets one key; a nil value removes the key
// entirely, which is how tests model an omitted request field.
func Field(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		if value == nil {
			delete(m, key)
			return
		}
		m[key] = value
	}
}
