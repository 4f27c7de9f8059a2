package activity

// Verbs and object types emitted by control stacks and entities.
const (
	VerbStackBuilt      = "controls.stack.built"
	VerbSettingsUpdated = "controls.settings.updated"
	VerbSettingsReset   = "controls.settings.reset"

	ObjectStack  = "controls.stack"
	ObjectEntity = "controls.entity"
)

// StackBuilt reports a stack whose registration finished with keys.
func StackBuilt(stack string, version uint64, keys []string) Event {
	return Event{
		Verb:       VerbStackBuilt,
		ObjectType: ObjectStack,
		ObjectID:   stack,
		Stack:      stack,
		Metadata: map[string]any{
			"controls": len(keys),
			"version":  version,
			"keys":     append([]string(nil), keys...),
		},
	}
}

// SettingsUpdated reports a raw setting written to entity. The values are
// the parsed setting before and after the write; nil values are omitted.
func SettingsUpdated(stack, entity string, version uint64, key string, oldValue, newValue any) Event {
	metadata := map[string]any{
		"version": version,
		"keys":    []string{key},
	}
	if oldValue != nil {
		metadata["old_value"] = oldValue
	}
	if newValue != nil {
		metadata["new_value"] = newValue
	}
	return Event{
		Verb:       VerbSettingsUpdated,
		ObjectType: ObjectEntity,
		ObjectID:   entityObjectID(stack, entity),
		Stack:      stack,
		Metadata:   metadata,
	}
}

// SettingsReset reports an entity whose settings views were dropped.
func SettingsReset(stack, entity string, version uint64) Event {
	return Event{
		Verb:       VerbSettingsReset,
		ObjectType: ObjectEntity,
		ObjectID:   entityObjectID(stack, entity),
		Stack:      stack,
		Metadata:   map[string]any{"version": version},
	}
}

// entityObjectID falls back to the stack name for entities without an id.
func entityObjectID(stack, entity string) string {
	if entity != "" {
		return entity
	}
	return stack
}
