package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/podryad/internal/amountwords"
	"github.com/nurpe/podryad/internal/contracttype"
	"github.com/nurpe/podryad/internal/dbtest"
	"github.com/nurpe/podryad/internal/model"
	"github.com/nurpe/podryad/internal/numbering"
	"github.com/nurpe/podryad/internal/repository"
)

type fixture struct {
	db        *gorm.DB
	templates *TemplateService
	documents *DocumentService
	registry  *contracttype.Registry
	pdf       *stubRenderer
	excel     *stubRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.Open(t)
	log := zerolog.Nop()

	templateRepo := repository.NewTemplateRepository(database)
	types, err := templateRepo.ListContractTypes(context.Background())
	require.NoError(t, err)
	registry, err := contracttype.NewRegistry(types)
	require.NoError(t, err)

	f := &fixture{
		db:       database,
		registry: registry,
		pdf:      &stubRenderer{content: []byte("%PDF")},
		excel:    &stubRenderer{content: []byte("PK")},
	}
	f.templates = NewTemplateService(templateRepo, registry, log)
	f.documents = NewDocumentService(DocumentServiceDeps{
		Templates: templateRepo,
		Documents: repository.NewDocumentRepository(database),
		Registry:  registry,
		Numbers:   numbering.NewAuthority(repository.NewSequenceRepository(database), numbering.DefaultMaxAttempts, log),
		Words:     amountwords.Rubles{},
		PDF:       f.pdf,
		Excel:     f.excel,
	}, log)
	return f
}

type stubRenderer struct {
	content []byte
	got     *model.ActDocument
}

func (r *stubRenderer) Generate(doc model.ActDocument) ([]byte, error) {
	r.got = &doc
	return r.content, nil
}

var (
	manager = model.Principal{UserID: uuid.New(), Role: model.RoleManager}
	admin   = model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	user    = model.Principal{UserID: uuid.New(), Role: model.RoleUser}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) createTemplate(t *testing.T, name, contractType string, names ...string) *CreateContractTemplateResult {
	t.Helper()
	res, err := f.templates.CreateContractTemplate(context.Background(), CreateContractTemplateInput{
		Name:             name,
		ContractType:     contractType,
		WorkServiceNames: names,
		Principal:        manager,
	})
	require.NoError(t, err)
	return res
}
