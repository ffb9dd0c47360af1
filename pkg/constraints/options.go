package constraints

// SkillOption is the render-ready view of one skill within a category:
// identity plus the display state the wizard needs. Disabled, Discouraged,
// and Recommended are mutually exclusive; disabled takes priority over
// discouraged, which takes priority over recommended.
type SkillOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Selected bool `json:"selected"`

	Disabled      bool   `json:"disabled"`
	DisableReason string `json:"disableReason,omitempty"`

	Discouraged      bool   `json:"discouraged"`
	DiscourageReason string `json:"discourageReason,omitempty"`

	Recommended     bool   `json:"recommended"`
	RecommendReason string `json:"recommendReason,omitempty"`

	Alternatives []string `json:"alternatives,omitempty"`
}

// AvailableSkills computes the display state of every skill in the category
// against the current selection, in stable id order.
func (e *Engine) AvailableSkills(categoryID string, selections []string) []SkillOption {
	selected := e.m.ResolveSet(selections)

	var options []SkillOption
	for _, id := range sortedCategorySkills(e.m, categoryID) {
		skill := e.m.Skill(id)

		opt := SkillOption{
			ID:           id,
			Name:         skill.Name,
			Description:  skill.Description,
			Selected:     selected[id],
			Alternatives: skill.Alternatives,
		}

		if reason := e.DisableReason(id, selections); reason != "" {
			opt.Disabled = true
			opt.DisableReason = reason
		} else if reason := e.DiscourageReason(id, selections); reason != "" {
			opt.Discouraged = true
			opt.DiscourageReason = reason
		} else if reason := e.RecommendReason(id, selections); reason != "" {
			opt.Recommended = true
			opt.RecommendReason = reason
		}

		options = append(options, opt)
	}
	return options
}

// CategoryAllDisabled reports whether every skill in the category is
// currently disabled, along with the short form (text before any
// parenthetical detail) of the first disable reason as a summary. A category
// with no skills is not considered all-disabled.
func (e *Engine) CategoryAllDisabled(categoryID string, selections []string) (bool, string) {
	ids := sortedCategorySkills(e.m, categoryID)
	if len(ids) == 0 {
		return false, ""
	}

	summary := ""
	for _, id := range ids {
		reason := e.DisableReason(id, selections)
		if reason == "" {
			return false, ""
		}
		if summary == "" {
			summary = shortReason(reason)
		}
	}
	return true, summary
}
