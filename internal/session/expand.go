package session

import "regexp"

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandProperties substitutes ${name} references with values from props.
// Unknown names are left as written.
func ExpandProperties(line string, props map[string]string) string {
	if len(props) == 0 {
		return line
	}
	return propertyRef.ReplaceAllStringFunc(line, func(ref string) string {
		name := propertyRef.FindStringSubmatch(ref)[1]
		if v, ok := props[name]; ok {
			return v
		}
		return ref
	})
}
