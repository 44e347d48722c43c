package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

type CLI struct {
	db        database.Database
	companies *services.CompanyService
	org       *services.OrgService
	members   *services.MemberService
	reports   *services.ReportService
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	cli := &CLI{
		db:        db,
		companies: services.NewCompanyService(db),
		org:       services.NewOrgService(db),
		members:   services.NewMemberService(db),
		reports:   services.NewReportService(db, services.NewAuditService(db)),
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "company-create":
		cli.createCompany(args)
	case "hq-create":
		cli.createHQAdmin(args)
	case "company-list":
		cli.listCompanies()
	case "demo":
		cli.seedDemo()
	case "db-status":
		cli.checkDatabaseStatus()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Weekly Report API - Seed CLI")
	fmt.Println()
	fmt.Println("Usage: seed <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  company-create   Register a company with its first admin")
	fmt.Println("  hq-create        Create a cross-tenant HQ admin")
	fmt.Println("  company-list     List all companies")
	fmt.Println("  demo             Seed a complete demo tenant with reports")
	fmt.Println("  db-status        Check database connection status")
}

func (cli *CLI) createCompany(args []string) {
	var (
		name      string
		slug      string
		email     string
		password  string
		userLimit int
	)

	fs := flag.NewFlagSet("company-create", flag.ExitOnError)
	fs.StringVar(&name, "name", "", "Company name (required)")
	fs.StringVar(&slug, "slug", "", "Company slug (defaults to slugified name)")
	fs.StringVar(&email, "admin-email", "", "First admin email (required)")
	fs.StringVar(&password, "admin-password", "", "First admin password (required)")
	fs.IntVar(&userLimit, "user-limit", 50, "Maximum member count")

	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
	if name == "" || email == "" || password == "" {
		fmt.Println("Error: --name, --admin-email and --admin-password are required")
		os.Exit(1)
	}
	if slug == "" {
		slug = utils.Slugify(name)
	}

	ctx := context.Background()
	company, admin, err := cli.companies.Register(ctx, services.RegisterInput{
		CompanyName: name,
		Slug:        slug,
		AdminEmail:  email,
		Password:    password,
		UserLimit:   userLimit,
	})
	if err != nil {
		log.Fatalf("Failed to register company: %v", err)
	}

	fmt.Printf("Created company %q (id=%d, slug=%s)\n", company.Name, company.ID, company.Slug)
	fmt.Printf("Created admin %s (id=%d)\n", admin.Email, admin.ID)
}

func (cli *CLI) createHQAdmin(args []string) {
	var email, password string

	fs := flag.NewFlagSet("hq-create", flag.ExitOnError)
	fs.StringVar(&email, "email", "", "HQ admin email (required)")
	fs.StringVar(&password, "password", "", "HQ admin password (required)")

	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
	if email == "" || password == "" {
		fmt.Println("Error: --email and --password are required")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := models.User{
		UUID:         uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleHQAdmin,
		IsActive:     true,
	}
	if err := cli.db.DB().Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create HQ admin: %v", err)
	}

	fmt.Printf("Created HQ admin %s (id=%d)\n", admin.Email, admin.ID)
}

func (cli *CLI) listCompanies() {
	companies, total, err := cli.companies.List(context.Background(), 1, 100)
	if err != nil {
		log.Fatalf("Failed to list companies: %v", err)
	}

	fmt.Printf("%d companies\n", total)
	for _, company := range companies {
		fmt.Printf("  %-4d %-20s %-12s users=%d/%d\n",
			company.ID, company.Slug, company.Status, company.CurrentUserCount, company.UserLimit)
	}
}

// seedDemo builds one fully onboarded tenant with an org tree, members
// in every role and a couple of weeks of reports.
func (cli *CLI) seedDemo() {
	ctx := context.Background()

	company, admin, err := cli.companies.Register(ctx, services.RegisterInput{
		CompanyName: "Acme Corp",
		Slug:        "acme",
		AdminEmail:  "admin@acme.test",
		AdminName:   "Ada Admin",
		Password:    "ChangeMe123!",
		UserLimit:   50,
	})
	if err != nil {
		log.Fatalf("Failed to register demo company: %v", err)
	}
	if err := cli.companies.Onboard(ctx, company.ID); err != nil {
		log.Fatalf("Failed to onboard demo company: %v", err)
	}

	tctx := tenant.WithContext(ctx, tenant.NewContext(company))

	division, err := cli.org.SeedHierarchy(tctx, services.SeedHierarchyInput{
		Division: "Engineering",
		Departments: []services.SeedDepartmentInput{
			{Name: "Platform", Teams: []string{"Core", "Infra"}},
			{Name: "Product", Teams: []string{"Web"}},
		},
	})
	if err != nil {
		log.Fatalf("Failed to seed hierarchy: %v", err)
	}

	teams, err := cli.org.ListTeams(tctx)
	if err != nil || len(teams) == 0 {
		log.Fatalf("Failed to load seeded teams: %v", err)
	}
	team := teams[0]

	lead := cli.demoMember(tctx, "lead@acme.test", "Lena", "Lead", models.RoleTeamLead, team.ID)
	member := cli.demoMember(tctx, "mia@acme.test", "Mia", "Member", models.RoleMember, team.ID)

	year, week := utils.ISOWeek(time.Now().UTC())
	prevYear, prevWeek := utils.PreviousISOWeek(time.Now().UTC(), 1)

	cli.demoReport(tctx, member, prevYear, prevWeek, true)
	cli.demoReport(tctx, member, year, week, false)
	cli.demoReport(tctx, lead, year, week, false)

	fmt.Printf("Seeded demo tenant %q (division=%s, teams=%d)\n", company.Slug, division.Name, len(teams))
	fmt.Printf("  admin:  %s / ChangeMe123!\n", admin.Email)
	fmt.Printf("  lead:   %s / ChangeMe123!\n", lead.Email)
	fmt.Printf("  member: %s / ChangeMe123!\n", member.Email)
}

func (cli *CLI) demoMember(ctx context.Context, email, first, last string, role models.Role, teamID uint) *models.User {
	invited, err := cli.members.Invite(ctx, services.InviteInput{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      role,
		TeamID:    &teamID,
	})
	if err != nil {
		log.Fatalf("Failed to invite %s: %v", email, err)
	}

	accepted, err := cli.members.AcceptInvitation(ctx, services.AcceptInvitationInput{
		Token:    *invited.InvitationToken,
		Password: "ChangeMe123!",
	})
	if err != nil {
		log.Fatalf("Failed to accept invitation for %s: %v", email, err)
	}
	return accepted
}

func (cli *CLI) demoReport(ctx context.Context, author *models.User, year, week int, submit bool) {
	report, err := cli.reports.Create(ctx, author, services.CreateReportInput{
		WorkYear: year,
		WorkWeek: week,
		Summary:  fmt.Sprintf("Week %d progress", week),
		Items: []services.ReportItemInput{
			{Type: models.ItemTypeCurrentWeek, Title: "Feature work", HoursSpent: 24, IsBillable: true},
			{Type: models.ItemTypeCurrentWeek, Title: "Code review", HoursSpent: 6},
			{Type: models.ItemTypeNextWeek, Title: "Planned follow-up", PlannedHours: 16},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create demo report for %s: %v", author.Email, err)
	}
	if submit {
		if _, err := cli.reports.Submit(ctx, author, report.ID); err != nil {
			log.Fatalf("Failed to submit demo report: %v", err)
		}
	}
}

func (cli *CLI) checkDatabaseStatus() {
	if err := cli.db.Ping(); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}

	var companies, users, reports int64
	cli.db.DB().Model(&models.Company{}).Count(&companies)
	cli.db.DB().Model(&models.User{}).Count(&users)
	cli.db.DB().Model(&models.WeeklyReport{}).Count(&reports)

	fmt.Println("Database connection: OK")
	fmt.Printf("  companies: %d\n", companies)
	fmt.Printf("  users:     %d\n", users)
	fmt.Printf("  reports:   %d\n", reports)
}
