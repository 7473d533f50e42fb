// Package rolegate decides which role may act on a catalog task.
package rolegate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kazz187/serviceboard/internal/catalog"
)

// RoleCarrier is implemented by user records that carry a role.
type RoleCarrier interface {
	RoleID() string
}

// Normalize converts any supported role representation into a lowercase
// RoleID. Supported shapes are a bare string, catalog.RoleID, a RoleCarrier,
// a map with a "role" entry (itself a string or an object with an "id"),
// and the raw JSON of any of those. Unknown shapes normalize to "".
func Normalize(v any) catalog.RoleID {
	switch r := v.(type) {
	case nil:
		return ""
	case catalog.RoleID:
		return clean(string(r))
	case string:
		return clean(r)
	case RoleCarrier:
		return clean(r.RoleID())
	case map[string]any:
		if role, ok := r["role"]; ok {
			return Normalize(role)
		}
		if id, ok := r["id"]; ok {
			return Normalize(id)
		}
		return ""
	case json.RawMessage:
		return fromJSON(r)
	case []byte:
		return fromJSON(r)
	case fmt.Stringer:
		return clean(r.String())
	default:
		return ""
	}
}

func fromJSON(data []byte) catalog.RoleID {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return ""
	}
	switch v.(type) {
	case string, map[string]any:
		return Normalize(v)
	}
	return ""
}

func clean(s string) catalog.RoleID {
	return catalog.RoleID(strings.ToLower(strings.TrimSpace(s)))
}

// CanAct reports whether role may mutate task. A restricted task accepts
// only its restricted role; otherwise the owning category role may act.
func CanAct(role any, task catalog.TaskDefinition) bool {
	r := Normalize(role)
	if r == "" {
		return false
	}
	if task.RestrictedToRole != "" {
		return r == clean(string(task.RestrictedToRole))
	}
	return r == clean(string(task.OwnerRole))
}

// Actionable returns the tasks of c the role may act on, in pipeline order.
func Actionable(role any, c *catalog.Catalog) []catalog.TaskDefinition {
	var out []catalog.TaskDefinition
	for _, t := range c.Tasks() {
		if CanAct(role, t) {
			out = append(out, t)
		}
	}
	return out
}
