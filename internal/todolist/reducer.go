package todolist

import (
	"slices"
	"time"
)

// State はTodo一覧の状態。
type State struct {
	Todos   []Item
	Loading bool
	Err     error
}

// ActionKind はアクションの種類。
type ActionKind string

// アクションの種類
const (
	ActionLoad           ActionKind = "LOAD_TODOS"
	ActionAdd            ActionKind = "ADD_TODO"
	ActionUpdate         ActionKind = "UPDATE_TODO"
	ActionDelete         ActionKind = "DELETE_TODO"
	ActionToggleStatus   ActionKind = "TOGGLE_TODO_STATUS"
	ActionClearCompleted ActionKind = "CLEAR_COMPLETED"
	ActionSetLoading     ActionKind = "SET_LOADING"
	ActionSetError       ActionKind = "SET_ERROR"
)

// Action は状態遷移の要求。Kindに応じたフィールドだけが使われる。
// 更新日時を変えるアクションはAtに時刻を持たせ、Reduceを純粋に保つ。
type Action struct {
	Kind    ActionKind
	Todos   []Item
	Item    Item
	Update  UpdateInput
	ID      string
	Loading bool
	Err     error
	At      time.Time
}

// Load は一覧全体を置き換えるアクションを返す。
func Load(items []Item) Action {
	return Action{Kind: ActionLoad, Todos: items}
}

// Add はItemを末尾に追加するアクションを返す。
func Add(item Item) Action {
	return Action{Kind: ActionAdd, Item: item}
}

// Update はIDが一致するItemへフィールドを反映するアクションを返す。
func Update(in UpdateInput, at time.Time) Action {
	return Action{Kind: ActionUpdate, Update: in, At: at}
}

// Delete はIDが一致するItemを取り除くアクションを返す。
func Delete(id string) Action {
	return Action{Kind: ActionDelete, ID: id}
}

// ToggleStatus はIDが一致するItemの状態を反転するアクションを返す。
func ToggleStatus(id string, at time.Time) Action {
	return Action{Kind: ActionToggleStatus, ID: id, At: at}
}

// ClearCompleted は完了済みのItemをすべて取り除くアクションを返す。
func ClearCompleted() Action {
	return Action{Kind: ActionClearCompleted}
}

// SetLoading は読み込み中フラグを設定するアクションを返す。
func SetLoading(loading bool) Action {
	return Action{Kind: ActionSetLoading, Loading: loading}
}

// SetError はエラーを記録するアクションを返す。
func SetError(err error) Action {
	return Action{Kind: ActionSetError, Err: err}
}

// changesTodos はアクションが一覧を書き換える種類かを返す。
func (a Action) changesTodos() bool {
	switch a.Kind {
	case ActionLoad, ActionAdd, ActionUpdate, ActionDelete, ActionToggleStatus, ActionClearCompleted:
		return true
	default:
		return false
	}
}

// Reduce は現在の状態とアクションから次の状態を返す。
// 入力のスライスは変更しない。未知のアクションは状態をそのまま返す。
func Reduce(state State, action Action) State {
	switch action.Kind {
	case ActionLoad:
		state.Todos = slices.Clone(action.Todos)
		state.Loading = false
	case ActionAdd:
		todos := make([]Item, 0, len(state.Todos)+1)
		todos = append(todos, state.Todos...)
		state.Todos = append(todos, action.Item)
	case ActionUpdate:
		state.Todos = mapItems(state.Todos, action.Update.ID, func(it Item) Item {
			return it.merged(action.Update, action.At)
		})
	case ActionDelete:
		state.Todos = filter(state.Todos, func(it Item) bool { return it.ID != action.ID })
	case ActionToggleStatus:
		state.Todos = mapItems(state.Todos, action.ID, func(it Item) Item {
			return it.toggled(action.At)
		})
	case ActionClearCompleted:
		state.Todos = NotCompleted(state.Todos)
	case ActionSetLoading:
		state.Loading = action.Loading
	case ActionSetError:
		state.Err = action.Err
		state.Loading = false
	}
	return state
}

// mapItems はIDが一致するItemにfを適用した新しいスライスを返す。
func mapItems(items []Item, id string, f func(Item) Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		if it.ID == id {
			out[i] = f(it)
		} else {
			out[i] = it
		}
	}
	return out
}
