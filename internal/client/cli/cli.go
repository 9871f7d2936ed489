package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	clientapi "github.com/iudanet/gophgram/internal/client/api"
	"github.com/iudanet/gophgram/internal/client/iocli"
	"github.com/iudanet/gophgram/internal/client/store"
)

// PasswordEnv переменная окружения с паролем для неинтерактивного входа
const PasswordEnv = "GOPHGRAM_PASSWORD"

// ErrReported ошибка операции уже выведена пользователю
var ErrReported = errors.New("command failed")

// ErrUnknownCommand неизвестная команда
var ErrUnknownCommand = errors.New("unknown command")

// Passwords альтернативные источники пароля
type Passwords struct {
	FromFile string
	FromArgs string
}

// Cli выполняет команды через store и отображает его состояние
type Cli struct {
	io    iocli.IO
	store *store.Store
	last  store.State
}

// New создает Cli и подписывает его вывод на изменения store
func New(io iocli.IO, st *store.Store) *Cli {
	c := &Cli{io: io, store: st, last: st.State()}
	st.Subscribe(c.render)
	return c
}

// Run выполняет команду. args без имени команды
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return c.runSignup(ctx, args)
	case "login":
		return c.runLogin(ctx, args)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus()
	case "me":
		return c.runMe(ctx)
	case "profile":
		return c.runProfile(ctx, args)
	case "posts":
		return c.runPosts(ctx)
	case "post":
		return c.runPost(ctx, args)
	case "post-create":
		return c.runPostCreate(ctx, args)
	case "post-edit":
		return c.runPostEdit(ctx, args)
	case "post-delete":
		return c.runPostDelete(ctx, args)
	case "post-like":
		return c.runPostLike(ctx, args)
	case "comments":
		return c.runComments(ctx, args)
	case "comment-add":
		return c.runCommentAdd(ctx, args)
	case "comment-edit":
		return c.runCommentEdit(ctx, args)
	case "comment-delete":
		return c.runCommentDelete(ctx, args)
	case "comment-like":
		return c.runCommentLike(ctx, args)
	case "help":
		PrintUsage(c.io)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// render выводит ошибку, когда срез состояния переходит в rejected
func (c *Cli) render(st store.State) {
	if st.Auth.Status == store.StatusRejected && c.last.Auth.Status == store.StatusPending {
		c.printError(st.Auth.Error)
	}
	if st.Posts.Status == store.StatusRejected && c.last.Posts.Status == store.StatusPending {
		c.printError(st.Posts.Error)
	}
	if st.Comments.Status == store.StatusRejected && c.last.Comments.Status == store.StatusPending {
		c.printError(st.Comments.Error)
	}
	c.last = st
}

func (c *Cli) printError(e *store.Error) {
	if e == nil {
		return
	}
	if len(e.Fields) == 0 {
		c.io.Printf("✗ %s\n", e.Message)
		return
	}
	c.io.Println("✗ Invalid input:")
	for _, f := range e.Fields {
		c.io.Printf("  - %s: %s\n", f.Field, f.Message)
	}
}

// reported помечает ошибку store как уже показанную через render
func reported(err error) error {
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// newFlags создает FlagSet, который пишет usage в IO вместо stderr
func (c *Cli) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.io)
	return fs
}

// requireArg возвращает единственный позиционный аргумент
func requireArg(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() < 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", fmt.Errorf("%s: %s is required", fs.Name(), what)
	}
	return fs.Arg(0), nil
}

// parseWithArg разбирает флаги до и после позиционного аргумента:
// "post-edit <id> -title x" и "post-edit -title x <id>" равнозначны
func parseWithArg(fs *flag.FlagSet, args []string, what string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	arg, err := requireArg(fs, what)
	if err != nil {
		return "", err
	}
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return "", err
	}
	return arg, nil
}

// openImage открывает файл для загрузки. Пустой путь означает "без файла"
func openImage(path string) (*clientapi.File, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	return &clientapi.File{Name: filepath.Base(path), Data: f}, func() { _ = f.Close() }, nil
}

// getPassword читает пароль с приоритетом:
// 1. переменная окружения GOPHGRAM_PASSWORD
// 2. файл из -password-file
// 3. флаг -password
// 4. интерактивный ввод
func (c *Cli) getPassword(passwords Passwords, prompt string) (string, error) {
	if envPassword := os.Getenv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	if passwords.FromFile != "" {
		content, err := os.ReadFile(passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	if passwords.FromArgs != "" {
		return passwords.FromArgs, nil
	}

	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

// ask возвращает value, а если он пуст, спрашивает у пользователя
func (c *Cli) ask(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	input, err := c.io.ReadInput(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return input, nil
}

// PrintUsage печатает справку
func PrintUsage(out iocli.IO) {
	out.Println("GophGram Client")
	out.Println()
	out.Println("Usage:")
	out.Println("  gophgram [OPTIONS] COMMAND [ARGS]")
	out.Println()
	out.Println("Options:")
	out.Println("  --version          Show version information")
	out.Println("  --server URL       Server URL (default: http://localhost:8080)")
	out.Println("  --db PATH          Path to local session database (default: gophgram-client.db)")
	out.Println("  --log-level LEVEL  Client log level (default: warn)")
	out.Println()
	out.Println("Account:")
	out.Println("  signup [-email E] [-username U] [-password P | -password-file F] [-avatar FILE]")
	out.Println("  login [-email E] [-password P | -password-file F]")
	out.Println("  logout")
	out.Println("  status                          Show saved session")
	out.Println("  me                              Fetch profile from server")
	out.Println("  profile [-username U] [-avatar FILE]")
	out.Println()
	out.Println("Posts:")
	out.Println("  posts                           Show feed, newest first")
	out.Println("  post <id>                       Show post with comments")
	out.Println("  post-create -title T -content C [-image FILE]")
	out.Println("  post-edit <id> [-title T] [-content C] [-image FILE]")
	out.Println("  post-delete <id>")
	out.Println("  post-like <id>                  Toggle like")
	out.Println()
	out.Println("Comments:")
	out.Println("  comments <post-id>")
	out.Println("  comment-add <post-id> -content C")
	out.Println("  comment-edit <id> -content C")
	out.Println("  comment-delete <id>")
	out.Println("  comment-like <id>               Toggle like")
	out.Println()
	out.Println("Password priority: " + PasswordEnv + ", -password-file, -password, prompt")
	out.Println()
	out.Println("Examples:")
	out.Println("  gophgram signup -email alice@example.com -username alice")
	out.Println("  gophgram post-create -title 'Hello' -content 'First post' -image cat.png")
	out.Println("  gophgram --server https://example.com posts")
}
