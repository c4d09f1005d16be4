// SPDX-License-Identifier: Apache-2.0

package inflect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabledep/tabledep/internal/inflect"
)

func TestSingularize(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"rewards", "reward"},
		{"orders", "order"},
		{"companies", "company"},
		{"categories", "category"},
		{"addresses", "address"},
		{"boxes", "box"},
		{"churches", "church"},
		{"dishes", "dish"},
		{"statuses", "status"},
		{"buses", "bus"},
		{"heroes", "hero"},
		{"knives", "knife"},
		{"people", "person"},
		{"children", "child"},
		{"analyses", "analysis"},
		// compound words singularize only the last segment
		{"post_checkins", "post_checkin"},
		{"user_rich_notifications", "user_rich_notification"},
		{"reward_categories", "reward_category"},
		// already singular / edge cases
		{"reward", "reward"},
		{"address", "address"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, inflect.Singularize(tt.word))
		})
	}
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"reward", "rewards"},
		{"company", "companies"},
		{"address", "addresses"},
		{"box", "boxes"},
		{"church", "churches"},
		{"knife", "knives"},
		{"person", "people"},
		{"child", "children"},
		{"day", "days"}, // vowel + y keeps the y
		{"post_checkin", "post_checkins"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, inflect.Pluralize(tt.word))
		})
	}
}

// Regular nouns must survive a pluralize/singularize round trip.
func TestRoundTrip(t *testing.T) {
	words := []string{
		"reward", "order", "company", "box", "church", "dish",
		"status", "user", "checkin", "document", "post_checkin",
	}
	for _, w := range words {
		assert.Equal(t, w, inflect.Singularize(inflect.Pluralize(w)), "round trip for %q", w)
	}
}

func TestTableName(t *testing.T) {
	tests := []struct {
		class string
		want  string
	}{
		{"User", "users"},
		{"Reward", "rewards"},
		{"PostCheckin", "post_checkins"},
		{"UserRichNotification", "user_rich_notifications"},
		{"Person", "people"},
		{"Company", "companies"},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			assert.Equal(t, tt.want, inflect.TableName(tt.class))
		})
	}
}

// TableName must agree with Pluralize(Underscore(x)) for regular nouns.
func TestTableNameMatchesUnderscorePluralize(t *testing.T) {
	for _, class := range []string{"Order", "CheckinEvent", "RewardCredit"} {
		assert.Equal(t, inflect.Pluralize(inflect.Underscore(class)), inflect.TableName(class))
	}
}
