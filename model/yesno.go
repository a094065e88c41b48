package model

import (
	"bytes"
	"fmt"
)

// YesNo marshals a boolean as the legacy "Y"/"N" pair still used by
// upstream DTO producers. Accepts native booleans on ingest too.
type YesNo bool

func (y YesNo) MarshalJSON() ([]byte, error) {
	if y {
		return []byte(`"Y"`), nil
	}
	return []byte(`"N"`), nil
}

func (y *YesNo) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte(`"Y"`)), bytes.Equal(data, []byte(`true`)):
		*y = true
	case bytes.Equal(data, []byte(`"N"`)), bytes.Equal(data, []byte(`false`)), bytes.Equal(data, []byte(`null`)):
		*y = false
	default:
		return fmt.Errorf("invalid yes/no value %s", string(data))
	}
	return nil
}
