package cli

import (
	"context"
	"strings"

	"github.com/iudanet/gophgram/pkg/api"
)

func (c *Cli) runComments(ctx context.Context, args []string) error {
	fs := c.newFlags("comments")
	postID, err := parseWithArg(fs, args, "post id")
	if err != nil {
		return err
	}
	if err := c.store.FetchComments(ctx, postID); err != nil {
		return reported(err)
	}
	c.printComments(c.store.State().Comments.Items)
	return nil
}

func (c *Cli) runCommentAdd(ctx context.Context, args []string) error {
	fs := c.newFlags("comment-add")
	var content string
	fs.StringVar(&content, "content", "", "Comment text")
	postID, err := parseWithArg(fs, args, "post id")
	if err != nil {
		return err
	}
	// Текст можно передать и позиционно: comment-add <post-id> nice post
	if content == "" && fs.NArg() > 0 {
		content = strings.Join(fs.Args(), " ")
	}
	if content, err = c.ask(content, "Comment: "); err != nil {
		return err
	}

	comment, err := c.store.CreateComment(ctx, postID, api.CreateCommentRequest{Content: content})
	if err != nil {
		return reported(err)
	}
	c.io.Printf("✓ Comment %s added\n", comment.ID)
	return nil
}

func (c *Cli) runCommentEdit(ctx context.Context, args []string) error {
	fs := c.newFlags("comment-edit")
	var content string
	fs.StringVar(&content, "content", "", "New comment text")
	id, err := parseWithArg(fs, args, "comment id")
	if err != nil {
		return err
	}
	if content == "" && fs.NArg() > 0 {
		content = strings.Join(fs.Args(), " ")
	}
	if content, err = c.ask(content, "Comment: "); err != nil {
		return err
	}

	comment, err := c.store.UpdateComment(ctx, id, api.UpdateCommentRequest{Content: &content})
	if err != nil {
		return reported(err)
	}
	c.io.Printf("✓ Comment %s updated\n", comment.ID)
	return nil
}

func (c *Cli) runCommentDelete(ctx context.Context, args []string) error {
	fs := c.newFlags("comment-delete")
	id, err := parseWithArg(fs, args, "comment id")
	if err != nil {
		return err
	}
	if err := c.store.DeleteComment(ctx, id); err != nil {
		return reported(err)
	}
	c.io.Printf("✓ Comment %s deleted\n", id)
	return nil
}

func (c *Cli) runCommentLike(ctx context.Context, args []string) error {
	fs := c.newFlags("comment-like")
	id, err := parseWithArg(fs, args, "comment id")
	if err != nil {
		return err
	}
	res, err := c.store.ToggleCommentLike(ctx, id)
	if err != nil {
		return reported(err)
	}
	c.printLike("Comment", res)
	return nil
}

func (c *Cli) printComments(comments []api.Comment) {
	c.io.Printf("=== Comments (%d) ===\n", len(comments))
	if len(comments) == 0 {
		c.io.Println("No comments yet.")
		return
	}
	for _, cm := range comments {
		c.io.Printf("[%s] %s  likes: %d  %s\n", cm.ID, cm.Author.Username, cm.LikeCount, shortTime(cm.CreatedAt))
		c.io.Printf("    %s\n", cm.Content)
	}
}
