package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillsarena/arena/internal/comments"
)

var (
	commentTarget  string
	commentParent  string
	commentAuthor  string
	commentContent string
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Attach a comment or reply to a skill",
	Run: func(cmd *cobra.Command, args []string) {
		if commentTarget == "" || commentAuthor == "" {
			fail(fmt.Errorf("--target and --author are required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		node, err := eng.AddComment(commentTarget, commentParent, commentAuthor, commentContent)
		if err != nil {
			fail(err)
		}
		fmt.Printf("added %s (depth %d, thread %s)\n", node.CommentID, node.Depth, node.ThreadID)
	},
}

func init() {
	commentCmd.Flags().StringVar(&commentTarget, "target", "", "Skill ID")
	commentCmd.Flags().StringVar(&commentParent, "parent", "", "Parent comment ID (omit for top-level)")
	commentCmd.Flags().StringVar(&commentAuthor, "author", "", "Author agent ID")
	commentCmd.Flags().StringVar(&commentContent, "content", "", "Comment text")
}

var commentsTarget string

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Show the discussion tree for a skill",
	Run: func(cmd *cobra.Command, args []string) {
		if commentsTarget == "" {
			fail(fmt.Errorf("--target is required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		tree, err := eng.GetCommentTree(commentsTarget)
		if err != nil {
			fail(err)
		}
		printHeader(fmt.Sprintf("comments for %s", commentsTarget))
		for _, t := range tree {
			printThread(t)
		}
	},
}

func printThread(t *comments.Thread) {
	content := t.Content
	if t.Deleted {
		content = "[deleted]"
	}
	fmt.Printf("%s%s (%s, score %d): %s\n",
		strings.Repeat("  ", t.Depth), t.CommentID[:8], t.AuthorID, t.VoteScore, content)
	for _, child := range t.Children {
		printThread(child)
	}
}

func init() {
	commentsCmd.Flags().StringVar(&commentsTarget, "target", "", "Skill ID")
}
