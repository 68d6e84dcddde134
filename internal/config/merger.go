package config

// MergeSettings merges two Settings objects.
// Values from 'overlay' override values in 'base'.
// For maps, overlay entries are merged into base entries.
func MergeSettings(base, overlay *Settings) *Settings {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}

	result := NewSettings()

	result.OrchestratorURL = pick(overlay.OrchestratorURL, base.OrchestratorURL)
	result.Model = pick(overlay.Model, base.Model)
	result.ReasoningEffort = pick(overlay.ReasoningEffort, base.ReasoningEffort)
	result.KubeContext = pick(overlay.KubeContext, base.KubeContext)
	result.KubeConfig = pick(overlay.KubeConfig, base.KubeConfig)

	result.Headers = mergeStringMaps(base.Headers, overlay.Headers)

	if overlay.AutoApprove != nil {
		result.AutoApprove = overlay.AutoApprove
	} else {
		result.AutoApprove = base.AutoApprove
	}

	if overlay.SessionLimit != 0 {
		result.SessionLimit = overlay.SessionLimit
	} else if base.SessionLimit != 0 {
		result.SessionLimit = base.SessionLimit
	}

	return result
}

// pick returns overlay if set, otherwise base.
func pick(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

// mergeStringMaps merges two map[string]string.
func mergeStringMaps(base, overlay map[string]string) map[string]string {
	if base == nil && overlay == nil {
		return nil
	}
	result := make(map[string]string)
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		result[k] = v
	}
	return result
}
