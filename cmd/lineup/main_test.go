package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/smartystreets/goconvey/convey"
)

const ratingsYAML = `
players:
  ana:  {forward: 9, midfielder: [4, 6], defender: 3}
  bo:   {forward: 3, midfielder: 8, defender: 5}
  cy:   {forward: 5, midfielder: 5, defender: 10}
  dee:  {forward: 7, midfielder: 6, defender: 2}
  eli:  {forward: 2, midfielder: 7, defender: 10}
  fay:  {forward: 6, midfielder: 3, defender: 6}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func ratingsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings.yaml")
	if err := os.WriteFile(path, []byte(ratingsYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFormulateCommand(t *testing.T) {
	convey.Convey("Given a ratings file", t, func() {
		path := ratingsFile(t)

		convey.Convey("When formulating with markdown output", func() {
			out, err := execute(t, "formulate", "--ratings", path, "--strategy", "ucb", "--seed", "3", "--iterations", "100")

			convey.Convey("Then a team table is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out), "\n")
				convey.So(lines[0], convey.ShouldEqual, "| Team 1 | Team 2 |")
				convey.So(lines[1], convey.ShouldEqual, "| --- | --- |")
				convey.So(lines[len(lines)-1], convey.ShouldStartWith, "| **")
				convey.So(len(lines), convey.ShouldEqual, 2+3+1)
			})
		})

		convey.Convey("When formulating with JSON output and explicit knobs", func() {
			out, err := execute(t, "formulate", "-r", path, "-s", "greedy", "-t", "3", "--epsilon", "0", "--seed", "5", "-o", "json")

			convey.Convey("Then the formation is printed as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				var f model.Formation
				convey.So(json.Unmarshal([]byte(out), &f), convey.ShouldBeNil)
				convey.So(f.Strategy, convey.ShouldEqual, search.NameEpsilonGreedy)
				convey.So(f.Seed, convey.ShouldEqual, 5)
				convey.So(len(f.Teams), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When comparing strategies", func() {
			out, err := execute(t, "compare", "--ratings", path, "--seed", "8", "--iterations", "50", "--population", "6")

			convey.Convey("Then every strategy is reported", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, name := range search.Names() {
					convey.So(out, convey.ShouldContainSubstring, "## "+name+" ")
				}
			})
		})

		convey.Convey("When the strategy is unknown", func() {
			_, err := execute(t, "formulate", "--ratings", path, "--strategy", "annealing")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the output format is unknown", func() {
			_, err := execute(t, "formulate", "--ratings", path, "--output", "xml")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given no ratings file", t, func() {
		_, err := execute(t, "formulate")
		convey.So(err, convey.ShouldNotBeNil)

		_, err = execute(t, "formulate", "--ratings", filepath.Join(t.TempDir(), "missing.yaml"))
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestStrategiesCommand(t *testing.T) {
	convey.Convey("When listing strategies", t, func() {
		out, err := execute(t, "strategies")

		convey.Convey("Then every registered name is printed", func() {
			convey.So(err, convey.ShouldBeNil)
			for _, name := range search.Names() {
				convey.So(out, convey.ShouldContainSubstring, name)
			}
		})
	})
}
