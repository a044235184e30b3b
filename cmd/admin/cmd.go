package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/principal"
	"github.com/ryitech/institute/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	gooseRunFunc     = database.Goose    // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sql.DB
	admins principal.AdminRepository
	dir    *principal.Directory
	seq    *principal.Sequencer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createsuperadmin -name NAME -email EMAIL -branch BRANCH -code CODE - create a verified super admin")
	fmt.Println("  resetpassword -email EMAIL - reset an account's password")
	fmt.Println("  migrate SUBCOMMAND [args] - run DB migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createSuperCmd := flag.NewFlagSet("createsuperadmin", flag.ExitOnError)
	createSuperName := createSuperCmd.String("name", "", "The admin's full name.")
	createSuperEmail := createSuperCmd.String("email", "", "The admin's email. The password will be prompted next.")
	createSuperBranch := createSuperCmd.String("branch", "", "The home branch name.")
	createSuperCode := createSuperCmd.String("code", "", "The home branch code.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	switch args[1] {
	case "createsuperadmin":
		if err := createSuperCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createSuperName == "" || *createSuperEmail == "" || *createSuperBranch == "" || *createSuperCode == "" {
			createSuperCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createSuperCmd.Usage()
			return errHelp
		}
		return cli.createSuperAdmin(*createSuperName, *createSuperEmail, *createSuperBranch, *createSuperCode, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return gooseRunFunc(args[2], cli.db, "migrations", args[3:]...)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// createSuperAdmin provisions a verified, active super admin without the OTP
// flow; any previously active super admin is deactivated.
func (cli *commandLine) createSuperAdmin(name, email, branchName, branchCode, pwd string) error {
	ctx := context.Background()

	email = core.CleanString(email, true /* lower */)
	branchCode = core.CleanString(branchCode, true /* lower */)

	if err := cli.dir.CheckEmailUnused(ctx, email); err != nil {
		return err
	}

	if current, err := cli.admins.GetActiveSuperAdmin(ctx); err == nil {
		current.ActiveStatus = false
		if _, err = cli.admins.UpdateAdmin(ctx, current); err != nil {
			return err
		}
	} else if err != principal.ErrNotFound {
		return err
	}

	humanID, err := cli.seq.NextID(ctx, principal.RoleSuper, branchCode)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	adm := principal.Admin{
		ID:           uuid.NewString(),
		HumanID:      humanID,
		Name:         core.CleanString(name),
		AdminRole:    principal.RoleSuper,
		BranchName:   core.CleanString(branchName),
		BranchCode:   branchCode,
		ActiveStatus: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	adm.Email = email
	adm.IsVerified = true
	adm.OTPRequestWindowStart = now
	if err = adm.SetPassword(pwd); err != nil {
		return err
	}

	if adm, err = cli.admins.CreateAdmin(ctx, adm); err != nil {
		return err
	}
	fmt.Printf("super admin %s created\n", adm.HumanID)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()

	p, err := cli.dir.FindByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = p.Cred().SetPassword(pwd); err != nil {
		return err
	}
	return cli.dir.Save(ctx, p)
}
