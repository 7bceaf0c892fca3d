package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ValidateKeys checks for duplicate keybindings and invalid key strings.
// Navigation keys (NavUp, NavDown, Toggle) only apply to the tree view and
// may reuse characters, so they are parsed but excluded from duplicate checks.
func ValidateKeys(keys *KeyBindings) error {
	keyMap := make(map[string][]string)

	v := reflect.ValueOf(keys).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Name

		if field.Kind() != reflect.String {
			continue
		}

		keyStr := field.String()
		if keyStr == "" {
			continue
		}

		parsed, err := ParseKey(keyStr)
		if err != nil {
			return fmt.Errorf("invalid key for %s: %w", fieldName, err)
		}

		if isTreeScoped(fieldName) {
			continue
		}

		normalized := KeyToString(parsed)
		keyMap[normalized] = append(keyMap[normalized], fieldName)
	}

	var duplicates []string
	for key, actions := range keyMap {
		if len(actions) > 1 {
			duplicates = append(duplicates, fmt.Sprintf("key %q is used by: %s", key, strings.Join(actions, ", ")))
		}
	}

	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return fmt.Errorf("duplicate keybindings found:\n  %s", strings.Join(duplicates, "\n  "))
	}

	return nil
}

func isTreeScoped(field string) bool {
	switch field {
	case "NavUp", "NavDown", "Toggle":
		return true
	}
	return false
}

// ValidateManifests checks that every manifest names a file and that
// file names are unique.
func ValidateManifests(manifests []Manifest) error {
	seen := make(map[string]bool, len(manifests))
	for i, m := range manifests {
		if strings.TrimSpace(m.File) == "" {
			return fmt.Errorf("manifest %d has no file", i)
		}
		if seen[m.File] {
			return fmt.Errorf("manifest %q listed twice", m.File)
		}
		seen[m.File] = true
	}
	return nil
}
