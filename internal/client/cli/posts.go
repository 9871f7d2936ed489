package cli

import (
	"context"
	"flag"
	"fmt"
	"slices"

	"github.com/iudanet/gophgram/pkg/api"
)

func (c *Cli) runPosts(ctx context.Context) error {
	if err := c.store.FetchPosts(ctx); err != nil {
		return reported(err)
	}

	posts := c.store.State().Posts.Items
	c.io.Println("=== Feed ===")
	if len(posts) == 0 {
		c.io.Println("No posts yet.")
		return nil
	}
	for _, p := range posts {
		c.printPostLine(p)
	}
	c.io.Printf("\nTotal: %d post(s)\n", len(posts))
	return nil
}

// runPost показывает пост полностью вместе с комментариями
func (c *Cli) runPost(ctx context.Context, args []string) error {
	fs := c.newFlags("post")
	id, err := parseWithArg(fs, args, "post id")
	if err != nil {
		return err
	}

	if err := c.store.FetchPosts(ctx); err != nil {
		return reported(err)
	}
	posts := c.store.State().Posts.Items
	i := slices.IndexFunc(posts, func(p api.Post) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("post %s not found", id)
	}
	c.printPost(posts[i])

	if err := c.store.FetchComments(ctx, id); err != nil {
		return reported(err)
	}
	c.io.Println()
	c.printComments(c.store.State().Comments.Items)
	return nil
}

func (c *Cli) runPostCreate(ctx context.Context, args []string) error {
	fs := c.newFlags("post-create")
	var req api.CreatePostRequest
	var imagePath string
	fs.StringVar(&req.Title, "title", "", "Post title")
	fs.StringVar(&req.Content, "content", "", "Post text")
	fs.StringVar(&imagePath, "image", "", "Image file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if req.Title, err = c.ask(req.Title, "Title: "); err != nil {
		return err
	}
	if req.Content, err = c.ask(req.Content, "Content: "); err != nil {
		return err
	}

	image, closeImage, err := openImage(imagePath)
	if err != nil {
		return err
	}
	defer closeImage()

	post, err := c.store.CreatePost(ctx, req, image)
	if err != nil {
		return reported(err)
	}
	c.io.Println("✓ Post created")
	c.printPost(*post)
	return nil
}

func (c *Cli) runPostEdit(ctx context.Context, args []string) error {
	fs := c.newFlags("post-edit")
	var title, content, imagePath string
	fs.StringVar(&title, "title", "", "New title")
	fs.StringVar(&content, "content", "", "New text")
	fs.StringVar(&imagePath, "image", "", "New image file")
	id, err := parseWithArg(fs, args, "post id")
	if err != nil {
		return err
	}

	// Незаданный флаг означает "не менять"
	var req api.UpdatePostRequest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			req.Title = &title
		case "content":
			req.Content = &content
		}
	})

	image, closeImage, err := openImage(imagePath)
	if err != nil {
		return err
	}
	defer closeImage()

	post, err := c.store.UpdatePost(ctx, id, req, image)
	if err != nil {
		return reported(err)
	}
	c.io.Println("✓ Post updated")
	c.printPost(*post)
	return nil
}

func (c *Cli) runPostDelete(ctx context.Context, args []string) error {
	fs := c.newFlags("post-delete")
	id, err := parseWithArg(fs, args, "post id")
	if err != nil {
		return err
	}
	if err := c.store.DeletePost(ctx, id); err != nil {
		return reported(err)
	}
	c.io.Printf("✓ Post %s deleted\n", id)
	return nil
}

func (c *Cli) runPostLike(ctx context.Context, args []string) error {
	fs := c.newFlags("post-like")
	id, err := parseWithArg(fs, args, "post id")
	if err != nil {
		return err
	}
	res, err := c.store.TogglePostLike(ctx, id)
	if err != nil {
		return reported(err)
	}
	c.printLike("Post", res)
	return nil
}

func (c *Cli) printPostLine(p api.Post) {
	c.io.Printf("[%s] %s by %s  likes: %d  comments: %d  %s\n",
		p.ID, preview(p.Title, 60), p.Author.Username, p.LikeCount, p.CommentCount, shortTime(p.CreatedAt))
	c.io.Printf("    %s\n", preview(p.Content, 100))
}

func (c *Cli) printPost(p api.Post) {
	c.io.Printf("=== %s ===\n", p.Title)
	c.io.Printf("ID:       %s\n", p.ID)
	c.io.Printf("Author:   %s\n", p.Author.Username)
	c.io.Printf("Created:  %s\n", shortTime(p.CreatedAt))
	if p.UpdatedAt.After(p.CreatedAt) {
		c.io.Printf("Updated:  %s\n", shortTime(p.UpdatedAt))
	}
	if p.Image != "" {
		c.io.Printf("Image:    %s\n", p.Image)
	}
	c.io.Printf("Likes:    %d\n", p.LikeCount)
	c.io.Printf("Comments: %d\n", p.CommentCount)
	c.io.Println()
	c.io.Println(p.Content)
}

func (c *Cli) printLike(what string, res *api.LikeResponse) {
	if res.Liked {
		c.io.Printf("✓ %s %s liked (%d like(s))\n", what, res.ID, res.LikeCount)
		return
	}
	c.io.Printf("✓ %s %s unliked (%d like(s))\n", what, res.ID, res.LikeCount)
}
