package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taskly/taskly/internal/filter"
	"github.com/taskly/taskly/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeEdit     Type = "edit"
	TypeDone     Type = "done"
	TypeUndo     Type = "undo"
	TypeDelete   Type = "delete"
	TypeShow     Type = "show"
	TypeFilter   Type = "filter"
	TypeCategory Type = "category"
	TypeDaily    Type = "daily"
	TypeNotify   Type = "notify"
)

var aliases = map[string]Type{
	"rm":  TypeDelete,
	"del": TypeDelete,
	"cat": TypeCategory,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs holds raw option values; Due is resolved by the handler against
// the current time.
type AddArgs struct {
	Title    string
	Due      string
	Category string
	Note     string
}

type EditArgs struct {
	Target   string
	Title    *string
	Due      string
	ClearDue bool
	Category *string
	Note     *string
}

type TargetArgs struct {
	Target string
}

type FilterArgs struct {
	Mode filter.DateMode
}

// CategoryArgs either selects a filter segment (0 is all) or renames the
// category at Index (1 to 4).
type CategoryArgs struct {
	Segment int
	Rename  bool
	Index   int
	Emoji   string
}

type DailyArgs struct {
	On bool
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Edit     *EditArgs
	Target   *TargetArgs
	Filter   *FilterArgs
	Category *CategoryArgs
	Daily    *DailyArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	typ := Type(head)
	if alias, ok := aliases[head]; ok {
		typ = alias
	}

	switch typ {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	case TypeDone, TypeUndo, TypeDelete, TypeShow:
		return parseTarget(input, typ, args)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeCategory:
		return parseCategory(input, args)
	case TypeDaily:
		return parseDaily(input, args)
	case TypeNotify:
		return Command{Type: TypeNotify, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// Options are key:value tokens. note: takes the rest of the line; title:
// takes words up to the next option; due: also takes a following HH:MM.
const (
	optTitle = "title:"
	optDue   = "due:"
	optCat   = "cat:"
	optNote  = "note:"
)

type options struct {
	words    []string
	title    *string
	due      *string
	category *string
	note     *string
}

func optionKey(tok string) string {
	lower := strings.ToLower(tok)
	for _, k := range []string{optTitle, optDue, optCat, optNote} {
		if strings.HasPrefix(lower, k) {
			return k
		}
	}
	return ""
}

func isClock(tok string) bool {
	h, m, ok := strings.Cut(tok, ":")
	if !ok || len(m) != 2 || len(h) == 0 || len(h) > 2 {
		return false
	}
	hh, err1 := strconv.Atoi(h)
	mm, err2 := strconv.Atoi(m)
	return err1 == nil && err2 == nil && hh < 24 && mm < 60
}

func parseOptions(args []string) (options, error) {
	var out options
	for i := 0; i < len(args); i++ {
		tok := args[i]
		key := optionKey(tok)
		if key == "" {
			out.words = append(out.words, tok)
			continue
		}
		val := tok[len(key):]
		switch key {
		case optNote:
			rest := strings.TrimSpace(strings.Join(append([]string{val}, args[i+1:]...), " "))
			out.note = &rest
			return out, nil
		case optTitle:
			words := []string{}
			if val != "" {
				words = append(words, val)
			}
			for i+1 < len(args) && optionKey(args[i+1]) == "" {
				i++
				words = append(words, args[i])
			}
			title := strings.Join(words, " ")
			out.title = &title
		case optDue:
			if val == "" {
				return out, invalid("due: requires a value")
			}
			if i+1 < len(args) && isClock(args[i+1]) && !isClock(val) {
				i++
				val += " " + args[i]
			}
			out.due = &val
		case optCat:
			cat := strings.TrimSpace(val)
			if !model.IsSingleEmoji(cat) {
				return out, invalid("cat: must be a single emoji, got %q", cat)
			}
			out.category = &cat
		}
	}
	return out, nil
}

func parseAdd(raw string, args []string) (Command, error) {
	opts, err := parseOptions(args)
	if err != nil {
		return Command{}, err
	}
	title := strings.TrimSpace(strings.Join(opts.words, " "))
	if opts.title != nil {
		title = strings.TrimSpace(*opts.title)
	}
	if title == "" {
		return Command{}, invalid("add requires a title")
	}
	out := AddArgs{Title: title}
	if opts.due != nil {
		out.Due = *opts.due
	}
	if opts.category != nil {
		out.Category = *opts.category
	}
	if opts.note != nil {
		out.Note = *opts.note
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) == 0 || optionKey(args[0]) != "" {
		return Command{}, invalid("edit requires a task id")
	}
	opts, err := parseOptions(args[1:])
	if err != nil {
		return Command{}, err
	}
	if len(opts.words) > 0 {
		return Command{}, invalid("unexpected words in edit: %q", strings.Join(opts.words, " "))
	}
	out := EditArgs{Target: args[0], Title: opts.title, Category: opts.category, Note: opts.note}
	if opts.due != nil {
		if strings.EqualFold(*opts.due, "none") {
			out.ClearDue = true
		} else {
			out.Due = *opts.due
		}
	}
	if out.Title == nil && out.Category == nil && out.Note == nil && out.Due == "" && !out.ClearDue {
		return Command{}, invalid("edit requires at least one of title:, due:, cat:, note:")
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &out}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires exactly one task id", typ)
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{Target: args[0]}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("filter requires one of all, today, week, overdue")
	}
	mode, err := filter.ParseDateMode(args[0])
	if err != nil {
		return Command{}, invalid("filter requires one of all, today, week, overdue")
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Mode: mode}}, nil
}

func parseCategory(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("category requires a segment 0-%d or rename", model.CategoryCount)
	}
	if strings.EqualFold(args[0], "rename") {
		if len(args) != 3 {
			return Command{}, invalid("usage: category rename <1-%d> <emoji>", model.CategoryCount)
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil || idx < 1 || idx > model.CategoryCount {
			return Command{}, invalid("category index must be 1-%d", model.CategoryCount)
		}
		return Command{Type: TypeCategory, Raw: raw, Category: &CategoryArgs{Rename: true, Index: idx, Emoji: args[2]}}, nil
	}
	if len(args) != 1 {
		return Command{}, invalid("category requires a segment 0-%d or rename", model.CategoryCount)
	}
	seg, err := strconv.Atoi(args[0])
	if err != nil || seg < 0 || seg > model.CategoryCount {
		return Command{}, invalid("category segment must be 0-%d", model.CategoryCount)
	}
	return Command{Type: TypeCategory, Raw: raw, Category: &CategoryArgs{Segment: seg}}, nil
}

func parseDaily(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("daily requires on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return Command{Type: TypeDaily, Raw: raw, Daily: &DailyArgs{On: true}}, nil
	case "off":
		return Command{Type: TypeDaily, Raw: raw, Daily: &DailyArgs{On: false}}, nil
	default:
		return Command{}, invalid("daily requires on or off")
	}
}
