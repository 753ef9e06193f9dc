package account

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/ecoquest/internal/cache"
	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres/pgtest"
	"serotonyl.ru/ecoquest/internal/features/catalog"
	"serotonyl.ru/ecoquest/internal/features/ledger"
	"serotonyl.ru/ecoquest/internal/features/progression"
	"serotonyl.ru/ecoquest/internal/features/purchase"
	"serotonyl.ru/ecoquest/internal/features/quiz"
	"serotonyl.ru/ecoquest/internal/features/trash"
	"serotonyl.ru/ecoquest/internal/features/users"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
		ok   bool
	}{
		{"valid", RegisterInput{Username: "bob", Email: "Bob@Example.com", Password: "secret1"}, true},
		{"admin role", RegisterInput{Username: "root", Email: "r@example.com", Password: "secret1", Role: "admin"}, true},
		{"short username", RegisterInput{Username: " b ", Email: "b@example.com", Password: "secret1"}, false},
		{"bad email", RegisterInput{Username: "bob", Email: "bob-at-example", Password: "secret1"}, false},
		{"short password", RegisterInput{Username: "bob", Email: "b@example.com", Password: "123"}, false},
		{"unknown role", RegisterInput{Username: "bob", Email: "b@example.com", Password: "secret1", Role: "owner"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ValidateRegistration(tt.in)
			if !tt.ok {
				if !common.Is(err, common.KindInvalidArgument) {
					t.Fatalf("err = %v, want invalid argument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Role == "" {
				t.Fatal("role not defaulted")
			}
		})
	}

	out, _ := ValidateRegistration(RegisterInput{Username: "bob", Email: " Bob@Example.com ", Password: "secret1"})
	if out.Email != "bob@example.com" || out.Role != common.RoleUser {
		t.Fatalf("normalized = %+v", out)
	}
}

type fixture struct {
	pool        *pgxpool.Pool
	account     *Service
	users       *users.Service
	wallet      *ledger.Service
	questions   *quiz.Service
	purchases   *purchase.Service
	progression *progression.Service
	trash       *trash.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool := pgtest.Open(t)

	wallet := ledger.NewService(pool, ledger.NewRepository())
	recycling := trash.NewService(pool, trash.NewRepository(), true)
	questions := quiz.NewService(pool, quiz.NewRepository())
	cat := catalog.NewService(catalog.NewRepository(pool), cache.Noop{}, 0)
	purchases := purchase.NewService(pool, purchase.NewRepository(), cat,
		purchase.NewMoneyPayment(wallet), purchase.NewRecyclePayment(recycling))
	prog := progression.NewService(pool, progression.NewRepository(), cat, recycling, wallet,
		progression.Rewards{LevelFullClear: 100, ReplayMax: 1000, ReplayBudget: 20})
	userSvc := users.NewService(pool, users.NewRepository(), wallet, 50)

	return &fixture{
		pool:        pool,
		account:     NewService(pool, userSvc, wallet, recycling, questions, purchases, prog),
		users:       userSvc,
		wallet:      wallet,
		questions:   questions,
		purchases:   purchases,
		progression: prog,
		trash:       recycling,
	}
}

func TestRegisterCreatesAllDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.account.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Money != 0 || u.Role != common.RoleUser {
		t.Fatalf("user = %+v", u)
	}

	rec, err := f.purchases.Get(ctx, u.ID)
	if err != nil || len(rec.Product) != 0 || len(rec.Voucher) != 0 {
		t.Fatalf("purchase record = %+v, %v", rec, err)
	}
	ul, err := f.progression.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("progression: %v", err)
	}
	if ul.HighestLevel != 0 || ul.Chapters[1] != (progression.ChapterState{}) || ul.Levels[1] != (progression.LevelState{}) {
		t.Fatalf("progression = %+v", ul)
	}

	p, err := f.account.Profile(ctx, u.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(p.Trash) != len(trash.Materials) || p.Trash.Total() != 0 {
		t.Fatalf("trash stats = %v", p.Trash)
	}

	summary, err := f.trash.DailySummary(ctx)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary.TotalNewRegistered != 1 {
		t.Fatalf("new registered = %d, want 1", summary.TotalNewRegistered)
	}
}

// brokenDocument создаёт свой документ и после этого падает.
type brokenDocument struct {
	userDocument
	userID uuid.UUID
}

var errInitFailed = errors.New("init failed")

func (d *brokenDocument) InitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	d.userID = userID
	if err := d.userDocument.InitTx(ctx, tx, userID); err != nil {
		return err
	}
	return errInitFailed
}

func TestRegisterRollsBackOnInitFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken := &brokenDocument{userDocument: f.progression}
	svc := NewService(f.pool, f.users, f.wallet, f.trash, f.questions, f.purchases, broken)
	_, err := svc.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: "secret1"})
	if !errors.Is(err, errInitFailed) {
		t.Fatalf("Register err = %v, want errInitFailed", err)
	}

	if broken.userID == uuid.Nil {
		t.Fatal("progression init was not reached")
	}
	if _, err := f.users.Get(ctx, broken.userID); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("Get after rollback err = %v, want ErrUserNotFound", err)
	}

	tables := []string{"users", "purchases", "user_levels", "user_trash", "question_stats"}
	for _, table := range tables {
		var n int
		if err := f.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Fatalf("%s has %d rows after rollback", table, n)
		}
	}

	summary, err := f.trash.DailySummary(ctx)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary.TotalNewRegistered != 0 {
		t.Fatalf("new registered = %d, want 0", summary.TotalNewRegistered)
	}

	// Имя и почта свободны: повторная регистрация проходит
	u, err := f.account.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register after rollback: %v", err)
	}
	if _, err := f.users.Get(ctx, u.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.account.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	_, err := f.account.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret1"})
	if !errors.Is(err, common.ErrUsernameTaken) {
		t.Fatalf("duplicate username err = %v", err)
	}
	_, err = f.account.Register(ctx, RegisterInput{Username: "alice2", Email: "ALICE@example.com", Password: "secret1"})
	if !errors.Is(err, common.ErrEmailTaken) {
		t.Fatalf("duplicate email err = %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.account.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	report, err := f.account.DeleteUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("failed steps = %v", report.Failed)
	}
	if _, err := f.account.Profile(ctx, u.ID); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("profile after delete err = %v", err)
	}
	if _, err := f.progression.Get(ctx, u.ID); !common.Is(err, common.KindNotFound) {
		t.Fatalf("progression after delete err = %v", err)
	}

	if _, err := f.account.DeleteUser(ctx, uuid.New()); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("delete missing user err = %v", err)
	}
}
