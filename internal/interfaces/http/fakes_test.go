package http_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

// store repositorios en memoria compartidos por todos los puertos.
type store struct {
	mu         sync.Mutex
	docs       map[string]entity.CarbonDocument
	nfts       map[string]entity.Nft
	users      map[string]entity.User
	files      map[string]entity.File
	blobs      map[string][]byte
	activities []entity.Activity
}

func newStore() *store {
	return &store{
		docs:  map[string]entity.CarbonDocument{},
		nfts:  map[string]entity.Nft{},
		users: map[string]entity.User{},
		files: map[string]entity.File{},
		blobs: map[string][]byte{},
	}
}

type docRepo struct{ s *store }

func (r docRepo) Create(_ context.Context, d *entity.CarbonDocument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.docs[d.ID] = *d
	return nil
}

func (r docRepo) GetByID(_ context.Context, id string) (*entity.CarbonDocument, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r docRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.CarbonDocument, error) {
	return r.GetByID(ctx, id)
}

func (r docRepo) Update(ctx context.Context, d *entity.CarbonDocument) error { return r.Create(ctx, d) }

func (r docRepo) List(_ context.Context, f repository.CarbonDocumentFilter) ([]*entity.CarbonDocument, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CarbonDocument
	for _, d := range r.s.docs {
		d := d
		if (f.CreatedByUser == "" || d.CreatedByUser == f.CreatedByUser) && (f.Status == "" || d.Status == f.Status) {
			out = append(out, &d)
		}
	}
	return out, len(out), nil
}

func (r docRepo) ReferencesFile(_ context.Context, fileID, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.docs {
		if d.DocumentFileID == fileID && d.CreatedByUser == email {
			return true, nil
		}
	}
	return false, nil
}

type nftRepo struct{ s *store }

func (r nftRepo) Create(_ context.Context, n *entity.Nft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nfts[n.ID] = *n
	return nil
}

func (r nftRepo) GetByID(_ context.Context, id string) (*entity.Nft, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.nfts[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (r nftRepo) UpdateOwner(_ context.Context, id, owner, txn string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := r.s.nfts[id]
	n.OwnerAddress, n.LastConfigTxn = owner, txn
	r.s.nfts[id] = n
	return nil
}

func (r nftRepo) ListByDocument(_ context.Context, docID string) ([]*entity.Nft, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Nft
	for _, n := range r.s.nfts {
		n := n
		if n.CarbonDocumentID == docID {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r nftRepo) List(ctx context.Context, _, _ int) ([]*entity.Nft, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Nft
	for _, n := range r.s.nfts {
		n := n
		out = append(out, &n)
	}
	return out, nil
}

type activityRepo struct{ s *store }

func (r activityRepo) Create(_ context.Context, a *entity.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.activities = append(r.s.activities, *a)
	return nil
}

func (r activityRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]*entity.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Activity
	for _, a := range r.s.activities {
		a := a
		if userID == "" || a.UserID == userID {
			out = append(out, &a)
		}
	}
	return out, nil
}

type userRepo struct{ s *store }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

type fileRepo struct{ s *store }

func (r fileRepo) Create(_ context.Context, f *entity.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.files[f.ID] = *f
	return nil
}

func (r fileRepo) GetByID(_ context.Context, id string) (*entity.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

type memStorage struct{ s *store }

func (m memStorage) Save(_ context.Context, name string, data []byte) (*entity.File, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	id := "file-" + name
	m.s.blobs[id] = data
	return &entity.File{ID: id, Name: name, Mime: "application/pdf", Size: int64(len(data)), Path: id, CreatedAt: time.Now()}, nil
}

func (m memStorage) Open(_ context.Context, f *entity.File) (io.ReadCloser, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return io.NopCloser(bytes.NewReader(m.s.blobs[f.ID])), nil
}

func (m memStorage) Remove(_ context.Context, f *entity.File) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.blobs, f.ID)
	return nil
}

type txRunner struct{ s *store }

func (t txRunner) RunWorkflow(_ context.Context, fn func(repository.CarbonDocumentRepository, repository.NftRepository, repository.ActivityRepository) error) error {
	return fn(docRepo{t.s}, nftRepo{t.s}, activityRepo{t.s})
}

func (t txRunner) RunDocument(_ context.Context, fn func(repository.CarbonDocumentRepository, repository.FileRepository, repository.ActivityRepository) error) error {
	return fn(docRepo{t.s}, fileRepo{t.s}, activityRepo{t.s})
}

type nopMailer struct{}

func (nopMailer) Send(context.Context, string, string, ...string) error { return nil }

type stubChain struct {
	err error
}

func (c *stubChain) MintCarbonNFT(context.Context, carbon.MintRequest) (*carbon.MintReceipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &carbon.MintReceipt{TxnID: "MINTTXN", DeveloperAsaID: 2002, FeeAsaID: 2001, CreatorAddress: "CREATOR"}, nil
}

func (c *stubChain) ClaimNFT(context.Context, uint64, string) (*carbon.ChainReceipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &carbon.ChainReceipt{TxnID: "CLAIMTXN"}, nil
}

func (c *stubChain) PrepareSwap(_ context.Context, _ uint64, owner string) (*carbon.SwapGroup, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &carbon.SwapGroup{GroupID: "R1JPVVA=", Txns: []carbon.GroupTxn{{TxnID: "T0", Blob: []byte("optin"), Signer: owner}}}, nil
}

func (c *stubChain) SubmitSignedGroup(context.Context, string, [][]byte) (*carbon.ChainReceipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &carbon.ChainReceipt{TxnID: "SWAPTXN"}, nil
}

func (c *stubChain) EscrowAddress() string { return "ESCROW" }

type stubCertificate struct{}

func (stubCertificate) GenerateCertificate(context.Context, *entity.CarbonDocument, []*entity.Nft, string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}
