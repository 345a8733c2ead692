package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skillsarena/arena/internal/registry"
)

var (
	registerHash     string
	registerFile     string
	registerName     string
	registerVersion  string
	registerUploader string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register uploaded package content with the registry",
	Run:   runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerHash, "hash", "", "Content hash of the package payload")
	registerCmd.Flags().StringVar(&registerFile, "file", "", "Hash this file instead of passing --hash")
	registerCmd.Flags().StringVar(&registerName, "name", "", "Canonical skill name")
	registerCmd.Flags().StringVar(&registerVersion, "declared-version", "1.0.0", "Self-declared semantic version")
	registerCmd.Flags().StringVar(&registerUploader, "uploader", "", "Uploading agent ID")
}

func runRegister(cmd *cobra.Command, args []string) {
	if registerHash == "" && registerFile != "" {
		h, err := hashFile(registerFile)
		if err != nil {
			fail(err)
		}
		registerHash = h
	}
	if registerHash == "" || registerName == "" || registerUploader == "" {
		fail(fmt.Errorf("--hash (or --file), --name and --uploader are required"))
	}

	eng, db, err := openEngine()
	if err != nil {
		fail(err)
	}
	defer db.Close()

	out, err := eng.RegisterContent(registerHash, registerName, registerVersion, registerUploader)
	if err != nil {
		fail(err)
	}

	switch out.Kind {
	case registry.Created:
		color.Green("Created %s", out.SkillID)
	case registry.Duplicate:
		color.Yellow("Duplicate of %s (uploader added: %v)", out.SkillID, out.UploaderAdded)
	case registry.NewVersion:
		if out.Supersedes != "" {
			color.Green("New version %s (supersedes %s)", out.SkillID, out.Supersedes)
		} else {
			color.Green("New version %s", out.SkillID)
		}
	case registry.VersionConflict:
		color.Red("Version conflict with %s: same declared version, different content", out.SkillID)
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var (
	verdictSkill string
	verdictPass  bool
)

var verdictCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Record the external validator's pass/fail verdict",
	Run: func(cmd *cobra.Command, args []string) {
		if verdictSkill == "" {
			fail(fmt.Errorf("--skill is required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()
		if err := eng.SetVerdict(verdictSkill, verdictPass); err != nil {
			fail(err)
		}
		fmt.Printf("verdict recorded: %s pass=%v\n", verdictSkill, verdictPass)
	},
}

func init() {
	verdictCmd.Flags().StringVar(&verdictSkill, "skill", "", "Skill ID")
	verdictCmd.Flags().BoolVar(&verdictPass, "pass", false, "Validator verdict")
}

var versionsName string

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Show the version chain for a skill name",
	Run: func(cmd *cobra.Command, args []string) {
		if versionsName == "" {
			fail(fmt.Errorf("--name is required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()
		chain, err := eng.Registry.Versions(versionsName)
		if err != nil {
			fail(err)
		}
		printHeader(fmt.Sprintf("%s (%d versions)", versionsName, len(chain)))
		for i, id := range chain {
			marker := " "
			if i == 0 {
				marker = "*"
			}
			fmt.Printf(" %s %-10s %s  %s\n", marker, id.Version, id.SkillID, id.CreatedAt.Format("2006-01-02 15:04"))
		}
	},
}

func init() {
	versionsCmd.Flags().StringVar(&versionsName, "name", "", "Canonical skill name")
}
