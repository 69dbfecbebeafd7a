package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/histoires/internal/mathgame"
	"github.com/MrWong99/histoires/internal/story"
)

// Words that steer a text-mode session instead of answering.
const (
	cmdQuit = "quitter"
	cmdBack = "retour"
)

func newPlayCmd(g *globals) *cobra.Command {
	var simplified bool

	cmd := &cobra.Command{
		Use:   "play <story-id>",
		Short: "Read a story in the terminal, typing what the child would say",
		Long: `Read a story in the terminal. Each line read from standard input is
treated as a final speech transcript. Type the number of a choice to press
it, "retour" to go back and "quitter" to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			lib, err := loadLibrary(cfg.Stories.Dir)
			if err != nil {
				return err
			}
			st, ok := lib.Get(args[0])
			if !ok {
				return fmt.Errorf("story %q not found in %s", args[0], cfg.Stories.Dir)
			}
			if !cmd.Flags().Changed("simplified") {
				simplified = cfg.Matching.Simplified
			}
			sess := story.NewSession(st,
				story.WithMatcher(matcherFor(cfg.Matching)),
				story.WithSimplified(simplified),
			)
			return playStory(cmd.InOrStdin(), cmd.OutOrStdout(), sess)
		},
	}
	cmd.Flags().BoolVarP(&simplified, "simplified", "s", false, "accept the keyword of a choice alone")
	return cmd
}

func playStory(in io.Reader, out io.Writer, sess *story.Session) error {
	st := sess.Story()
	fmt.Fprintf(out, "📖 %s (%s)\n", st.Title, st.Difficulty.Label())
	printScene(out, sess)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, cmdQuit):
			return nil
		case strings.EqualFold(line, cmdBack):
			if !sess.Back() {
				fmt.Fprintln(out, "Tu es déjà au début.")
			}
			printScene(out, sess)
			continue
		}

		var (
			outcome story.Outcome
			err     error
		)
		if n, convErr := strconv.Atoi(line); convErr == nil {
			outcome, err = sess.Choose(n - 1)
		} else {
			outcome, err = sess.Respond(line)
		}
		if err != nil {
			fmt.Fprintf(out, "⚠️  %v\n", err)
			continue
		}

		fmt.Fprintln(out, outcome.Feedback)
		if !outcome.Matched {
			fmt.Fprintf(out, "   (similarité %.0f %%)\n", outcome.Decision.Similarity)
			continue
		}
		if outcome.Gained != "" {
			fmt.Fprintf(out, "🎒 Tu as trouvé : %s\n", itemName(sess, outcome.Gained))
		}
		printScene(out, sess)
	}
	fmt.Fprintf(out, "⭐ %d XP\n", sess.XP())
	return sc.Err()
}

func printScene(out io.Writer, sess *story.Session) {
	sc := sess.Scene()
	fmt.Fprintln(out)
	if sc.Title != "" {
		fmt.Fprintf(out, "## %s\n", sc.Title)
	}
	fmt.Fprintln(out, sc.Text)
	locked := make(map[int]bool, len(sc.Choices))
	for i := range sc.Choices {
		locked[i] = true
	}
	for _, a := range sess.Available() {
		locked[a.Index] = false
	}
	for i, c := range sc.Choices {
		switch {
		case locked[i] && c.FallbackText != "":
			fmt.Fprintf(out, "  🔒 %s\n", c.FallbackText)
		case locked[i]:
			continue
		case sess.Simplified() && c.Keyword != "":
			fmt.Fprintf(out, "  %d. %s [%s]\n", i+1, c.Text, c.Keyword)
		default:
			fmt.Fprintf(out, "  %d. %s\n", i+1, c.Text)
		}
	}
	fmt.Fprintf(out, "(%d XP)\n", sess.XP())
}

// itemName returns the label of the scene granting item, or item itself.
func itemName(sess *story.Session, item string) string {
	if sc := sess.Scene(); sc.Item == item && sc.ItemLabel != "" {
		return sc.ItemLabel
	}
	return item
}

func newMathCmd(g *globals) *cobra.Command {
	var (
		operation string
		level     string
		count     int
		seed      uint64
	)

	cmd := &cobra.Command{
		Use:   "math",
		Short: "Practice additions or subtractions in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			op, lvl := cfg.Math.DefaultOperation, cfg.Math.DefaultLevel
			if operation != "" {
				op = mathgame.Operation(operation)
			}
			if level != "" {
				lvl = mathgame.Level(level)
			}
			if count <= 0 {
				count = cfg.Math.ProblemsPerSession
			}

			var rng *rand.Rand
			if seed != 0 {
				rng = rand.New(rand.NewPCG(seed, seed))
			}
			sess, err := mathgame.NewSession(mathgame.NewGenerator(rng), op, lvl, count,
				mathgame.WithMatcher(matcherFor(cfg.Matching)),
			)
			if err != nil {
				return err
			}
			return playMath(cmd.InOrStdin(), cmd.OutOrStdout(), sess)
		},
	}
	cmd.Flags().StringVarP(&operation, "operation", "o", "", "addition or soustraction (default from config)")
	cmd.Flags().StringVarP(&level, "level", "l", "", "facile, moyen or difficile (default from config)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of problems (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible problems (0 draws a random seed)")
	_ = cmd.Flags().MarkHidden("seed")
	return cmd
}

func playMath(in io.Reader, out io.Writer, sess *mathgame.Session) error {
	op := sess.Operation()
	fmt.Fprintf(out, "%s %s · %s · %d questions\n", op.Emoji(), op.DisplayName(), sess.Level().DisplayName(), sess.Len())
	printProblem(out, sess)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, cmdQuit) {
			break
		}
		res, err := sess.Answer(line)
		if err != nil {
			return err
		}
		if !res.Heard {
			fmt.Fprintln(out, story.FeedbackNoMatch)
			continue
		}
		fmt.Fprintln(out, res.Feedback)
		if res.Complete {
			break
		}
		printProblem(out, sess)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	sum := sess.Summary()
	fmt.Fprintf(out, "%s %d/%d (%d %%) %s\n", sum.Emoji, sum.Score, sum.Total, sum.Percent, sum.Message)
	return nil
}

func printProblem(out io.Writer, sess *mathgame.Session) {
	p, ok := sess.Current()
	if !ok {
		return
	}
	fmt.Fprintf(out, "%d. %s = ?   « %s »\n", p.ID, p.Question, p.Spoken)
}
