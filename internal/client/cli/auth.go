package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/gophgram/pkg/api"
)

func passwordFlags(fs *flag.FlagSet, p *Passwords) {
	fs.StringVar(&p.FromArgs, "password", "", "Password (not recommended, use "+PasswordEnv+")")
	fs.StringVar(&p.FromFile, "password-file", "", "Path to file containing password")
}

func (c *Cli) runSignup(ctx context.Context, args []string) error {
	fs := c.newFlags("signup")
	var req api.SignupRequest
	var passwords Passwords
	var avatarPath string
	fs.StringVar(&req.Email, "email", "", "Email")
	fs.StringVar(&req.Username, "username", "", "Display name")
	fs.StringVar(&avatarPath, "avatar", "", "Avatar image file")
	passwordFlags(fs, &passwords)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.io.Println("=== Sign up ===")

	var err error
	if req.Email, err = c.ask(req.Email, "Email: "); err != nil {
		return err
	}
	if req.Username, err = c.ask(req.Username, "Username: "); err != nil {
		return err
	}
	if req.Password, err = c.getPassword(passwords, "Password (min 6 chars): "); err != nil {
		return err
	}

	avatar, closeAvatar, err := openImage(avatarPath)
	if err != nil {
		return err
	}
	defer closeAvatar()

	if err := c.store.Signup(ctx, req, avatar); err != nil {
		return reported(err)
	}

	user := c.store.State().Auth.User
	c.io.Println("✓ Signed up!")
	c.printProfile(user)
	return nil
}

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	fs := c.newFlags("login")
	var req api.LoginRequest
	var passwords Passwords
	fs.StringVar(&req.Email, "email", "", "Email")
	passwordFlags(fs, &passwords)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.io.Println("=== Login ===")

	var err error
	if req.Email, err = c.ask(req.Email, "Email: "); err != nil {
		return err
	}
	if req.Password, err = c.getPassword(passwords, "Password: "); err != nil {
		return err
	}

	if err := c.store.Login(ctx, req); err != nil {
		return reported(err)
	}

	c.io.Println("✓ Login successful!")
	c.printProfile(c.store.State().Auth.User)
	c.io.Println("Your session has been saved.")
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.store.Logout(ctx); err != nil {
		c.io.Printf("Warning: %v\n", err)
	}
	c.io.Println("✓ Logged out. Local session deleted.")
	return nil
}

// runStatus показывает локальную сессию без обращения к серверу
func (c *Cli) runStatus() error {
	c.io.Println("=== Session ===")
	user := c.store.State().Auth.User
	if user == nil {
		c.io.Println("Status: Not authenticated")
		c.io.Println("Run 'gophgram login' to authenticate.")
		return nil
	}
	c.io.Println("Status: Authenticated")
	c.printProfile(user)
	return nil
}

func (c *Cli) runMe(ctx context.Context) error {
	if err := c.store.FetchMe(ctx); err != nil {
		return reported(err)
	}
	c.printProfile(c.store.State().Auth.User)
	return nil
}

func (c *Cli) runProfile(ctx context.Context, args []string) error {
	fs := c.newFlags("profile")
	var username, avatarPath string
	fs.StringVar(&username, "username", "", "New display name")
	fs.StringVar(&avatarPath, "avatar", "", "New avatar image file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req api.UpdateProfileRequest
	if username != "" {
		req.Username = &username
	}
	if req.Username == nil && avatarPath == "" {
		return fmt.Errorf("profile: nothing to update, pass -username or -avatar")
	}

	avatar, closeAvatar, err := openImage(avatarPath)
	if err != nil {
		return err
	}
	defer closeAvatar()

	if err := c.store.UpdateMe(ctx, req, avatar); err != nil {
		return reported(err)
	}
	c.io.Println("✓ Profile updated")
	c.printProfile(c.store.State().Auth.User)
	return nil
}

func (c *Cli) printProfile(user *api.UserProfile) {
	if user == nil {
		return
	}
	c.io.Printf("User ID:  %s\n", user.ID)
	c.io.Printf("Email:    %s\n", user.Email)
	c.io.Printf("Username: %s\n", user.Username)
	c.io.Printf("Avatar:   %s\n", user.Avatar)
	if !user.CreatedAt.IsZero() {
		c.io.Printf("Joined:   %s\n", user.CreatedAt.Local().Format(time.DateOnly))
	}
}

func shortTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// preview обрезает длинный текст для ленты
func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
