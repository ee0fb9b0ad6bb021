package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hitoshi/todoapp/internal/config"
	"github.com/hitoshi/todoapp/internal/localstore"
	"github.com/hitoshi/todoapp/internal/logger"
	"github.com/hitoshi/todoapp/internal/todolist"
)

const localUsage = `usage: todoapp local <command> [flags]

commands:
  list [--status active|completed] [--priority low|medium|high] [--sort priority]
  add <title> [--priority low|medium|high]
  update <id> [--title <title>] [--priority low|medium|high]
  toggle <id>
  delete <id>
  clear-completed`

// errLocalUsage はlocalコマンドの引数が不正な場合のエラー。
var errLocalUsage = errors.New(localUsage)

// runLocal はLOCAL_STORE_PATHのJSONファイルに保存するTodo一覧を操作する。
// 結果はJSONでoutへ、ログはlogOutへ出力する。
func runLocal(out, logOut io.Writer, args []string) error {
	if len(args) == 0 {
		return errLocalUsage
	}

	cfg := config.LoadLocal()
	log := logger.Setup(logOut)
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warn("invalid LOG_LEVEL, falling back to info", slog.String("level", cfg.LogLevel))
	}

	adapter := localstore.New(
		localstore.NewFileKV(cfg.StorePath),
		localstore.WithKey(cfg.StoreKey),
		localstore.WithLogger(log),
	)
	store := todolist.NewStore(adapter, todolist.WithLogger(log))

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("failed to flush todos", slog.String("error", err.Error()))
		}
	}()

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to load todos: %w", err)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return localList(out, store, rest)
	case "add":
		return localAdd(ctx, out, store, rest)
	case "update":
		return localUpdate(ctx, out, store, rest)
	case "toggle":
		id, err := singleArg(sub, rest)
		if err != nil {
			return err
		}
		item, err := store.ToggleTodoStatus(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to toggle todo: %w", err)
		}
		return writeJSON(out, item)
	case "delete":
		id, err := singleArg(sub, rest)
		if err != nil {
			return err
		}
		deleted, err := store.DeleteTodo(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}
		return writeJSON(out, map[string]bool{"deleted": deleted})
	case "clear-completed":
		return writeJSON(out, map[string]bool{"cleared": store.ClearCompletedTodos(ctx)})
	default:
		return fmt.Errorf("unknown local command %q\n%w", sub, errLocalUsage)
	}
}

func localList(out io.Writer, store *todolist.Store, args []string) error {
	fs := newFlagSet("list")
	status := fs.String("status", "", "active or completed")
	priority := fs.String("priority", "", "low, medium or high")
	sortBy := fs.String("sort", "", "priority")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items := store.Todos()
	switch todolist.Status(*status) {
	case "":
	case todolist.StatusActive, todolist.StatusCompleted:
		items = todolist.FilterByStatus(items, todolist.Status(*status))
	default:
		return fmt.Errorf("invalid status %q", *status)
	}
	if *priority != "" {
		p := todolist.Priority(*priority)
		if !todolist.IsValidPriority(p) {
			return fmt.Errorf("%w: %q", todolist.ErrInvalidPriority, *priority)
		}
		items = todolist.FilterByPriority(items, p)
	}
	switch *sortBy {
	case "":
	case "priority":
		items = todolist.SortByPriority(items)
	default:
		return fmt.Errorf("invalid sort key %q", *sortBy)
	}

	if items == nil {
		items = []todolist.Item{}
	}
	return writeJSON(out, items)
}

func localAdd(ctx context.Context, out io.Writer, store *todolist.Store, args []string) error {
	fs := newFlagSet("add")
	priority := fs.String("priority", "", "low, medium or high")
	title, err := parseWithPositional(fs, args)
	if err != nil {
		return err
	}

	item, err := store.AddTodo(ctx, todolist.CreateInput{
		Title:    title,
		Priority: todolist.Priority(*priority),
	})
	if err != nil {
		return fmt.Errorf("failed to add todo: %w", err)
	}
	return writeJSON(out, item)
}

func localUpdate(ctx context.Context, out io.Writer, store *todolist.Store, args []string) error {
	fs := newFlagSet("update")
	title := fs.String("title", "", "new title")
	priority := fs.String("priority", "", "low, medium or high")
	id, err := parseWithPositional(fs, args)
	if err != nil {
		return err
	}

	in := todolist.UpdateInput{ID: id}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			in.Title = title
		case "priority":
			p := todolist.Priority(*priority)
			in.Priority = &p
		}
	})

	item, err := store.UpdateTodo(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return writeJSON(out, item)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseWithPositional はフラグと1つの位置引数を解析する。フラグは位置引数の前後どちらにも置ける。
func parseWithPositional(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() == 0 {
		return "", fmt.Errorf("%s: missing argument\n%w", fs.Name(), errLocalUsage)
	}
	positional := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return "", err
	}
	if fs.NArg() > 0 {
		return "", fmt.Errorf("%s: unexpected arguments %v", fs.Name(), fs.Args())
	}
	return positional, nil
}

func singleArg(name string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s: expected exactly one argument\n%w", name, errLocalUsage)
	}
	return args[0], nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
