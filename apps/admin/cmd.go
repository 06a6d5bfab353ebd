package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errDBRequired = errors.New("this command requires the postgres database engine")
)

type commandLine struct {
	db       *sqlx.DB // nil for the in-memory engine
	usrRepo  user.Repository
	crsRepo  course.Repository
	quizRepo quiz.Repository
	subRepo  submission.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the application database and role if they do not exist")
	fmt.Println("  migrate up|down|version|force VERSION - manage database migrations")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-name NAME] [-roles ROLE,...] - update or create a user")
	fmt.Println("  assignrole -username USERNAME|EMAIL -role ROLE - add a role to a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  seed - load a demo teacher, students, course, quiz and submissions")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRoles := addUserCmd.String("roles", "", "Comma-separated roles to set. Defaults to admin.")

	assignRoleCmd := flag.NewFlagSet("assignrole", flag.ExitOnError)
	assignRoleUname := assignRoleCmd.String("username", "", "The user's username or email.")
	assignRoleRole := assignRoleCmd.String("role", "", "The role to add.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "createdb":
		return cli.createDB()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		var roles []string
		if *addUserRoles != "" {
			roles = strings.Split(*addUserRoles, ",")
		}
		return cli.addUser(*addUserUname, *addUserEmail, *addUserName, string(pwd), roles)
	case "assignrole":
		if err := assignRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *assignRoleUname == "" || *assignRoleRole == "" {
			assignRoleCmd.Usage()
			return errHelp
		}
		return cli.assignRole(*assignRoleUname, *assignRoleRole)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, string(pwd))
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() ([]byte, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	return pwd, err
}
