// Package todolist はクライアント側で保持するTodo一覧の状態管理を提供する。
// 状態遷移は純粋関数Reduceで表し、Storeがそれを保持してストレージへ書き戻す。
package todolist

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Priority はTodoの優先度。
type Priority string

// 優先度の値
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority は優先度が指定されなかった場合の値。
const DefaultPriority = PriorityMedium

// Status はTodoの状態。
type Status string

// 状態の値
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// MaxTitleLength はタイトルの最大文字数。
const MaxTitleLength = 100

// Item はローカルに保持するTodo。
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Priority  Priority  `json:"priority"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInput はItem作成の入力。
type CreateInput struct {
	Title    string
	Priority Priority
}

// UpdateInput はItem更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	ID       string
	Title    *string
	Priority *Priority
	Status   *Status
}

// IsValidTitle はタイトルが空白のみでなく、最大文字数以内かを返す。
func IsValidTitle(title string) bool {
	return strings.TrimSpace(title) != "" && utf8.RuneCountInString(title) <= MaxTitleLength
}

// IsValidPriority は優先度が定義済みの値かを返す。
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// NewItem は入力からactive状態のItemを生成する。
// タイトルは前後の空白を除去し、優先度が空ならDefaultPriorityを使う。
func NewItem(in CreateInput, now time.Time) Item {
	p := in.Priority
	if p == "" {
		p = DefaultPriority
	}
	return Item{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		Priority:  p,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// toggled は状態を反転したItemを返す。
func (it Item) toggled(now time.Time) Item {
	if it.Status == StatusCompleted {
		it.Status = StatusActive
	} else {
		it.Status = StatusCompleted
	}
	it.UpdatedAt = now
	return it
}

// merged は入力のnilでないフィールドを反映したItemを返す。
func (it Item) merged(in UpdateInput, now time.Time) Item {
	if in.Title != nil {
		it.Title = *in.Title
	}
	if in.Priority != nil {
		it.Priority = *in.Priority
	}
	if in.Status != nil {
		it.Status = *in.Status
	}
	it.UpdatedAt = now
	return it
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// SortByPriority はhigh、medium、lowの順に並べたコピーを返す。
// 同じ優先度の中では元の順序を保つ。
func SortByPriority(items []Item) []Item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b Item) int {
		return priorityRank(a.Priority) - priorityRank(b.Priority)
	})
	return out
}

// FilterByStatus は指定状態のItemだけを返す。
func FilterByStatus(items []Item, status Status) []Item {
	return filter(items, func(it Item) bool { return it.Status == status })
}

// FilterByPriority は指定優先度のItemだけを返す。
func FilterByPriority(items []Item, p Priority) []Item {
	return filter(items, func(it Item) bool { return it.Priority == p })
}

// Active は未完了のItemを返す。
func Active(items []Item) []Item {
	return FilterByStatus(items, StatusActive)
}

// Completed は完了済みのItemを返す。
func Completed(items []Item) []Item {
	return FilterByStatus(items, StatusCompleted)
}

// NotCompleted は完了済み以外のItemを返す。activeでない未知の状態も残す。
func NotCompleted(items []Item) []Item {
	return filter(items, func(it Item) bool { return it.Status != StatusCompleted })
}

// filter はkeepを満たすItemの新しいスライスを返す。該当がなければnilを返す。
func filter(items []Item, keep func(Item) bool) []Item {
	var out []Item
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
