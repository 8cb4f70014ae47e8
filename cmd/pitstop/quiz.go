package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/academy"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

const localUser = "local"

func newQuizCmd() *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "quiz <quiz-id>",
		Short: "play a catalog quiz in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := academy.LoadCatalog(catalogPath)
			if err != nil {
				return err
			}
			return playQuiz(cmd, academy.NewService(c, nil), args[0])
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog-path", "",
		"quiz catalog file (default built-in)")
	return cmd
}

// playQuiz asks each question on the command output and reads 1-based
// option numbers from its input.
func playQuiz(cmd *cobra.Command, svc *academy.Service, quizID string) error {
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	a, err := svc.StartQuiz(localUser, quizID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%d questions)\n", a.Title, a.Total)

	for !a.Complete {
		q := a.Question
		fmt.Fprintf(out, "\nQuestion %d of %d: %s\n", a.Index+1, a.Total, q.Prompt)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}

		for {
			fmt.Fprint(out, "> ")
			if !in.Scan() {
				if err := in.Err(); err != nil {
					return err
				}
				return io.ErrUnexpectedEOF
			}
			n, err := strconv.Atoi(strings.TrimSpace(in.Text()))
			if err != nil {
				fmt.Fprintf(out, "enter a number between 1 and %d\n", len(q.Options))
				continue
			}
			if _, err := svc.Select(localUser, n-1); err != nil {
				if errors.Is(err, fault.ErrInvalidArgument) {
					fmt.Fprintf(out, "enter a number between 1 and %d\n", len(q.Options))
					continue
				}
				return err
			}
			break
		}

		a, err = svc.Submit(localUser)
		if err != nil {
			return err
		}
		if a.Reveal.Correct {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Not quite. The answer is %d) %s\n", a.Reveal.CorrectIndex+1, q.Options[a.Reveal.CorrectIndex])
		}
		if a.Reveal.Explanation != "" {
			fmt.Fprintln(out, a.Reveal.Explanation)
		}

		if a, err = svc.Advance(cmd.Context(), localUser); err != nil {
			return err
		}
	}

	quiz, _ := svc.Catalog().Quiz(quizID)
	fmt.Fprintf(out, "\nScore: %d/%d, %d points\n", a.Score, a.Total, academy.Award(quiz.Points, a.Score, a.Total))
	return nil
}
