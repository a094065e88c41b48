package flow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/oliveagle/jsonpath"
)

const jsSelectorPrefix string = "js:"

// SelectOutcome evaluates a task's outcome selector against the output
// data the completing caller supplied. A "js:" prefix runs the rest as
// javascript with $ bound to the data and uses the script result;
// anything else is a jsonpath lookup whose value becomes the outcome
// name.
func SelectOutcome(selector string, data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	if strings.HasPrefix(selector, jsSelectorPrefix) {
		return runScript(strings.TrimPrefix(selector, jsSelectorPrefix), data)
	}
	value, err := jsonpath.JsonPathLookup(data, selector)
	if err != nil {
		return "", fmt.Errorf("error evaluating outcome expression %q: %w", selector, err)
	}
	return stringify(value), nil
}

func runScript(script string, data map[string]any) (string, error) {
	encoded, _ := json.Marshal(data)
	expression := fmt.Sprintf("var $ = %s;\n", encoded) + script
	vm := goja.New()
	val, err := vm.RunString(expression)
	if err != nil {
		return "", fmt.Errorf("error executing javascript %w", err)
	}
	return stringify(val.Export()), nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.Itoa(int(v))
	case float64:
		return strconv.Itoa(int(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}
