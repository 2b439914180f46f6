package models

import (
	"encoding/json"
	"fmt"
)

// TitleKey names one of the overridable view titles.
type TitleKey string

const (
	TitleHome            TitleKey = "home"
	TitlePlanner         TitleKey = "planner"
	TitlePlannerSubtitle TitleKey = "plannerSubtitle"
	TitleShopping        TitleKey = "shopping"
)

type Titles struct {
	Home            string `json:"home"`
	Planner         string `json:"planner"`
	PlannerSubtitle string `json:"plannerSubtitle"`
	Shopping        string `json:"shopping"`
}

// UserProfile is the cosmetic profile bucket. Avatar is an emoji or a data URL.
type UserProfile struct {
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	Tagline string `json:"tagline"`
	Titles  Titles `json:"titles"`
}

func DefaultProfile() UserProfile {
	return UserProfile{
		Name:    "我的食堂",
		Avatar:  "🐧",
		Tagline: "今天也要好好吃饭",
		Titles: Titles{
			Home:            "企鹅食堂",
			Planner:         "饮食计划",
			PlannerSubtitle: "Meal Planner",
			Shopping:        "购物清单",
		},
	}
}

// SetTitle overrides one view title.
func (p UserProfile) SetTitle(key TitleKey, value string) (UserProfile, error) {
	switch key {
	case TitleHome:
		p.Titles.Home = value
	case TitlePlanner:
		p.Titles.Planner = value
	case TitlePlannerSubtitle:
		p.Titles.PlannerSubtitle = value
	case TitleShopping:
		p.Titles.Shopping = value
	default:
		return p, fmt.Errorf("unknown title %q", key)
	}
	return p, nil
}

// withDefaults fills fields missing from an older stored profile.
func (p UserProfile) withDefaults() UserProfile {
	d := DefaultProfile()
	if p.Name == "" {
		p.Name = d.Name
	}
	if p.Avatar == "" {
		p.Avatar = d.Avatar
	}
	if p.Titles.Home == "" {
		p.Titles.Home = d.Titles.Home
	}
	if p.Titles.Planner == "" {
		p.Titles.Planner = d.Titles.Planner
	}
	if p.Titles.PlannerSubtitle == "" {
		p.Titles.PlannerSubtitle = d.Titles.PlannerSubtitle
	}
	if p.Titles.Shopping == "" {
		p.Titles.Shopping = d.Titles.Shopping
	}
	return p
}

func MarshalProfile(p UserProfile) (json.RawMessage, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	return data, nil
}

// UnmarshalProfile decodes a stored profile. Empty input yields the default.
func UnmarshalProfile(data []byte) (UserProfile, error) {
	if len(data) == 0 || string(data) == "null" {
		return DefaultProfile(), nil
	}
	var p UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultProfile(), fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return p.withDefaults(), nil
}
