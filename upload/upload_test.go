package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muroom-studio/muroom-admin/config"
	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
)

type fakeIssuer struct {
	calls  atomic.Int32
	failOn map[string]bool
}

func (f *fakeIssuer) IssueUploadURL(_ context.Context, req model.PresignRequest) (model.PresignedURL, error) {
	n := f.calls.Add(1)
	if f.failOn[req.FileName] {
		return model.PresignedURL{}, &apperr.URLIssuanceError{FileName: req.FileName, Category: string(req.Category), Status: 500, Err: errors.New("boom")}
	}
	key := fmt.Sprintf("studios/%s/%d-%s", req.Category, n, req.FileName)
	return model.PresignedURL{URL: "https://storage.test/" + key, Key: key}, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	puts    []string
	bodies  map[string][]byte
	failURL func(url string) bool
	active  atomic.Int32
	peak    atomic.Int32
}

func (f *fakeStorage) Put(_ context.Context, url string, body io.Reader, _ int64, _ string) error {
	cur := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, url)
	if f.failURL != nil && f.failURL(url) {
		return &apperr.StorageWriteError{Status: 403, Err: errors.New("signature expired")}
	}
	if f.bodies == nil {
		f.bodies = make(map[string][]byte)
	}
	f.bodies[url] = data
	return nil
}

func (f *fakeStorage) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

type fakeSubmitter struct {
	calls []*model.StudioCreateRequest
	err   error
}

func (f *fakeSubmitter) CreateStudio(_ context.Context, req *model.StudioCreateRequest) (*model.StudioCreated, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.StudioCreated{StudioID: 42}, nil
}

type fakeInspector struct {
	size int64
	err  error
}

func (f fakeInspector) Stat(_ context.Context, key string) (model.ObjectInfo, error) {
	return model.ObjectInfo{Key: key, Size: f.size}, f.err
}

func validForm() model.StudioForm {
	lo, hi := int64(10000), int64(20000)
	return model.StudioForm{
		StudioName:       " Groove Room ",
		StudioMinPrice:   &lo,
		StudioMaxPrice:   &hi,
		OwnerPhoneNumber: "010-1234-5678",
		AddressInfo: model.AddressInfo{
			ZipCode:      "04050",
			RoadAddress:  "서울 마포구 양화로 1",
			JibunAddress: "서울 마포구 서교동 1",
		},
		BuildingInfo: model.BuildingInfo{
			FloorType:          "UNDERGROUND",
			RestroomType:       "INTERNAL",
			ParkingFeeType:     "FREE",
			IsParkingAvailable: false,
			ParkingSpots:       3,
		},
		NearbyStations: []model.NearbyStation{{SubwayStationID: "7", Sequence: "9"}, {SubwayStationID: "3", Sequence: "2"}},
		Rooms:          []model.Room{{RoomName: "A", RoomBasePrice: "300000"}},
	}
}

func addFile(t *testing.T, s *Session, cat model.Category, name string) *model.UploadItem {
	t.Helper()
	item := &model.UploadItem{Category: cat, FileName: name, ContentType: "image/jpeg", Content: []byte("data-" + name)}
	require.NoError(t, s.AddItem(item, DefaultRules()))
	return item
}

func newFlow(issuer *fakeIssuer, storage *fakeStorage, sub *fakeSubmitter) *Flow {
	return NewFlow(NewCoordinator(issuer, storage, 3), sub, DefaultRules())
}

func TestSubmitTwoMainOneBlueprint(t *testing.T) {
	issuer, storage, sub := &fakeIssuer{}, &fakeStorage{}, &fakeSubmitter{}
	s := NewSession("")
	require.NoError(t, s.SetForm(validForm()))
	addFile(t, s, model.CategoryMain, "front.jpg")
	addFile(t, s, model.CategoryMain, "hall.jpg")
	addFile(t, s, model.CategoryBlueprint, "plan.png")

	created, err := newFlow(issuer, storage, sub).Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.StudioID)

	assert.Equal(t, int32(3), issuer.calls.Load())
	assert.Equal(t, 3, storage.putCount())
	require.Len(t, sub.calls, 1)

	req := sub.calls[0]
	assert.Len(t, req.ImageKeys.MainImageKeys, 2)
	assert.Contains(t, req.ImageKeys.MainImageKeys[0], "front.jpg")
	assert.Contains(t, req.ImageKeys.MainImageKeys[1], "hall.jpg")
	assert.Contains(t, req.ImageKeys.BlueprintImageKey, "plan.png")
	assert.Empty(t, req.ImageKeys.BuildingImageKeys)
	assert.NotNil(t, req.ImageKeys.BuildingImageKeys)

	assert.Equal(t, "Groove Room", req.StudioName)
	assert.Equal(t, "01012345678", req.OwnerPhoneNumber)
	assert.Equal(t, "1", req.NearbyStations[0].Sequence)
	assert.Equal(t, "2", req.NearbyStations[1].Sequence)
	assert.Zero(t, req.BuildingInfo.ParkingSpots)

	view := s.Snapshot()
	assert.Equal(t, model.PhaseDone, view.Phase)
	assert.Equal(t, int64(42), view.StudioID)
	for _, it := range view.Items {
		assert.Equal(t, model.ItemSucceeded, it.State)
		assert.NotEmpty(t, it.Key)
		assert.Equal(t, it.Size, it.BytesSent)
	}
}

func TestSubmitBlueprintFailureBlocksAndRetriesOnlyFailed(t *testing.T) {
	issuer := &fakeIssuer{}
	failing := true
	storage := &fakeStorage{failURL: func(url string) bool {
		return failing && strings.Contains(url, "plan.png")
	}}
	sub := &fakeSubmitter{}
	flow := newFlow(issuer, storage, sub)

	s := NewSession("")
	require.NoError(t, s.SetForm(validForm()))
	front := addFile(t, s, model.CategoryMain, "front.jpg")
	addFile(t, s, model.CategoryBlueprint, "plan.png")

	_, err := flow.Submit(context.Background(), s)
	var failures *apperr.UploadFailures
	require.ErrorAs(t, err, &failures)
	require.Len(t, failures.Items, 1)
	assert.Equal(t, "plan.png", failures.Items[0].FileName)
	assert.Empty(t, sub.calls)

	view := s.Snapshot()
	assert.Equal(t, model.PhaseEditing, view.Phase)
	assert.NotEmpty(t, view.LastError)
	for _, it := range view.Items {
		if it.ID == front.ID {
			assert.Equal(t, model.ItemSucceeded, it.State)
			assert.NotEmpty(t, it.Key)
		} else {
			assert.Equal(t, model.ItemFailed, it.State)
			assert.Empty(t, it.Key)
			assert.Contains(t, it.Error, "signature expired")
		}
	}

	failing = false
	_, err = flow.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int32(3), issuer.calls.Load(), "only the failed item is issued a new url")
	assert.Equal(t, 3, storage.putCount())
	require.Len(t, sub.calls, 1)
	assert.Len(t, sub.calls[0].ImageKeys.MainImageKeys, 1)
	assert.NotEmpty(t, sub.calls[0].ImageKeys.BlueprintImageKey)
}

func TestSubmitIssuanceFailure(t *testing.T) {
	issuer := &fakeIssuer{failOn: map[string]bool{"hall.jpg": true}}
	storage, sub := &fakeStorage{}, &fakeSubmitter{}

	s := NewSession("")
	require.NoError(t, s.SetForm(validForm()))
	addFile(t, s, model.CategoryMain, "front.jpg")
	addFile(t, s, model.CategoryMain, "hall.jpg")
	addFile(t, s, model.CategoryBlueprint, "plan.png")

	_, err := newFlow(issuer, storage, sub).Submit(context.Background(), s)
	var failures *apperr.UploadFailures
	require.ErrorAs(t, err, &failures)
	require.Len(t, failures.Items, 1)
	assert.Equal(t, "hall.jpg", failures.Items[0].FileName)

	assert.Equal(t, int32(3), issuer.calls.Load())
	assert.Equal(t, 2, storage.putCount(), "no write without a url")
	assert.Empty(t, sub.calls)
}

func TestUploadFailuresKeepErrorTypes(t *testing.T) {
	issuer := &fakeIssuer{failOn: map[string]bool{"hall.jpg": true}}
	storage := &fakeStorage{failURL: func(url string) bool { return strings.Contains(url, "plan.png") }}

	s := NewSession("")
	require.NoError(t, s.SetForm(validForm()))
	addFile(t, s, model.CategoryMain, "front.jpg")
	addFile(t, s, model.CategoryMain, "hall.jpg")
	addFile(t, s, model.CategoryBlueprint, "plan.png")

	_, err := newFlow(issuer, storage, &fakeSubmitter{}).Submit(context.Background(), s)
	var failures *apperr.UploadFailures
	require.ErrorAs(t, err, &failures)
	require.Len(t, failures.Items, 2)

	assert.Equal(t, "hall.jpg", failures.Items[0].FileName)
	var issuance *apperr.URLIssuanceError
	require.ErrorAs(t, failures.Items[0].Err, &issuance)
	assert.Equal(t, "url_issuance", failures.Items[0].Kind())

	assert.Equal(t, "plan.png", failures.Items[1].FileName)
	var write *apperr.StorageWriteError
	require.ErrorAs(t, failures.Items[1].Err, &write)
	assert.Equal(t, "plan.png", write.FileName)
	assert.NotEmpty(t, write.Key)
	assert.Equal(t, 403, write.Status)
	assert.Equal(t, "storage_write", failures.Items[1].Kind())

	assert.ErrorAs(t, err, &write, "item errors are reachable from the aggregate")

	for _, it := range s.Snapshot().Items {
		if it.FileName == "plan.png" {
			assert.Contains(t, it.Error, "write plan.png to storage: status 403")
		}
	}
}

func TestSubmitValidationBeforeNetwork(t *testing.T) {
	issuer, storage, sub := &fakeIssuer{}, &fakeStorage{}, &fakeSubmitter{}
	form := validForm()
	form.Rooms = nil

	s := NewSession("")
	require.NoError(t, s.SetForm(form))
	addFile(t, s, model.CategoryMain, "front.jpg")

	_, err := newFlow(issuer, storage, sub).Submit(context.Background(), s)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Problems))
	for _, p := range verr.Problems {
		fields = append(fields, p.Field)
	}
	assert.Contains(t, fields, "rooms")
	assert.Contains(t, fields, "images.BLUEPRINT")

	assert.Zero(t, issuer.calls.Load())
	assert.Zero(t, storage.putCount())
	assert.Empty(t, sub.calls)
	assert.Equal(t, model.PhaseEditing, s.Phase())
}

func TestSubmitCreateFailureIsNotRetried(t *testing.T) {
	issuer, storage := &fakeIssuer{}, &fakeStorage{}
	sub := &fakeSubmitter{err: &apperr.SubmissionError{Endpoint: "/api/admin/studios", Status: 400, Body: "bad floor"}}

	s := NewSession("")
	require.NoError(t, s.SetForm(validForm()))
	addFile(t, s, model.CategoryMain, "front.jpg")
	addFile(t, s, model.CategoryBlueprint, "plan.png")

	_, err := newFlow(issuer, storage, sub).Submit(context.Background(), s)
	var serr *apperr.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Len(t, sub.calls, 1)
	assert.Equal(t, model.PhaseEditing, s.Phase())

	for _, it := range s.Snapshot().Items {
		assert.Equal(t, model.ItemSucceeded, it.State)
	}
}

func TestSubmitRejectsDoneAndBusy(t *testing.T) {
	s := NewSession("")
	require.NoError(t, s.SetForm(validForm()))
	addFile(t, s, model.CategoryMain, "front.jpg")
	addFile(t, s, model.CategoryBlueprint, "plan.png")

	flow := newFlow(&fakeIssuer{}, &fakeStorage{}, &fakeSubmitter{})
	_, err := flow.Submit(context.Background(), s)
	require.NoError(t, err)

	_, err = flow.Submit(context.Background(), s)
	assert.ErrorIs(t, err, apperr.ErrAlreadySubmitted)
	assert.ErrorIs(t, s.SetForm(validForm()), apperr.ErrAlreadySubmitted)

	busy := NewSession("")
	require.NoError(t, busy.begin())
	_, err = flow.Submit(context.Background(), busy)
	assert.ErrorIs(t, err, apperr.ErrDraftBusy)
	assert.ErrorIs(t, busy.Reset(), apperr.ErrDraftBusy)

	require.NoError(t, s.Reset())
	view := s.Snapshot()
	assert.Equal(t, model.PhaseEditing, view.Phase)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.StudioID)
}

func TestCoordinatorRespectsConcurrency(t *testing.T) {
	storage := &fakeStorage{}
	c := NewCoordinator(&fakeIssuer{}, storage, 2)

	s := NewSession("")
	for i := 0; i < 8; i++ {
		addFile(t, s, model.CategoryRoom, fmt.Sprintf("room-%d.jpg", i))
	}

	require.NoError(t, c.Upload(context.Background(), s))
	assert.Equal(t, 8, storage.putCount())
	assert.LessOrEqual(t, storage.peak.Load(), int32(2))
}

func TestCoordinatorVerifiesSize(t *testing.T) {
	s := NewSession("")
	item := addFile(t, s, model.CategoryMain, "front.jpg")

	c := NewCoordinator(&fakeIssuer{}, &fakeStorage{}, 1).WithInspector(fakeInspector{size: 1})
	err := c.Upload(context.Background(), s)
	var failures *apperr.UploadFailures
	require.ErrorAs(t, err, &failures)
	assert.Contains(t, failures.Items[0].Err.Error(), "verify")

	c = NewCoordinator(&fakeIssuer{}, &fakeStorage{}, 1).WithInspector(fakeInspector{size: int64(len(item.Content))})
	require.NoError(t, c.Upload(context.Background(), s))
	assert.Equal(t, model.ItemSucceeded, s.Snapshot().Items[0].State)
	assert.Equal(t, 2, s.Snapshot().Items[0].Attempts)
}

func TestSessionItemLimits(t *testing.T) {
	s := NewSession("draft-1")
	assert.Equal(t, "draft-1", s.ID())

	addFile(t, s, model.CategoryBlueprint, "plan.png")
	err := s.AddItem(&model.UploadItem{Category: model.CategoryBlueprint, FileName: "plan2.png"}, DefaultRules())
	assert.ErrorIs(t, err, apperr.ErrCategoryFull)

	err = s.AddItem(&model.UploadItem{Category: "POSTER", FileName: "x.png"}, DefaultRules())
	assert.ErrorIs(t, err, apperr.ErrUnknownCategory)

	item := addFile(t, s, model.CategoryMain, "front.jpg")
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, model.ItemPending, item.State)
	assert.Equal(t, int64(len("data-front.jpg")), item.Size)

	require.NoError(t, s.RemoveItem(item.ID))
	assert.ErrorIs(t, s.RemoveItem(item.ID), apperr.ErrItemNotFound)
	assert.Len(t, s.Snapshot().Items, 1)
}

func TestSessionDefaultMainAndBuildingCaps(t *testing.T) {
	s := NewSession("")
	for i := 1; i <= 3; i++ {
		addFile(t, s, model.CategoryMain, fmt.Sprintf("main-%d.jpg", i))
	}
	err := s.AddItem(&model.UploadItem{Category: model.CategoryMain, FileName: "main-4.jpg"}, DefaultRules())
	assert.ErrorIs(t, err, apperr.ErrCategoryFull)

	for i := 1; i <= 4; i++ {
		addFile(t, s, model.CategoryBuilding, fmt.Sprintf("building-%d.jpg", i))
	}
	err = s.AddItem(&model.UploadItem{Category: model.CategoryBuilding, FileName: "building-5.jpg"}, DefaultRules())
	assert.ErrorIs(t, err, apperr.ErrCategoryFull)

	assert.Len(t, s.Snapshot().Items, 7)
}

func TestValidateFormProblems(t *testing.T) {
	lo, hi := int64(50000), int64(10000)
	form := model.StudioForm{
		StudioMinPrice: &lo,
		StudioMaxPrice: &hi,
		BuildingInfo: model.BuildingInfo{
			IsParkingAvailable: true,
			ParkingFeeType:     "PAID",
		},
		NearbyStations: make([]model.NearbyStation, 4),
		Rooms:          []model.Room{{RoomName: " "}},
	}
	items := []model.UploadItem{{Category: model.CategoryMain, FileName: "a.jpg"}}

	err := Validate(form, items, DefaultRules())
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make(map[string]bool)
	for _, p := range verr.Problems {
		fields[p.Field] = true
	}
	for _, want := range []string{
		"studioName",
		"ownerPhoneNumber",
		"addressInfo.zipCode",
		"buildingInfo.floorType",
		"buildingInfo.parkingFeeInfo",
		"studioMinPrice",
		"nearbyStations",
		"rooms[0].roomName",
		"images.BLUEPRINT",
	} {
		assert.True(t, fields[want], "expected problem for %s", want)
	}
	assert.False(t, fields["images.MAIN"])
}

func TestBuildStudioRequiresUploadedItems(t *testing.T) {
	items := []model.UploadItem{
		{Category: model.CategoryMain, FileName: "a.jpg", State: model.ItemSucceeded, Key: "k1"},
		{Category: model.CategoryBlueprint, FileName: "b.png", State: model.ItemPending},
	}
	_, err := BuildStudio(validForm(), items, DefaultRules())
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "images.BLUEPRINT", verr.Problems[0].Field)

	items[1].State, items[1].Key = model.ItemSucceeded, "k2"
	items = append(items,
		model.UploadItem{Category: model.CategoryOptionCommon, FileName: "c.jpg", State: model.ItemSucceeded, Key: "k3"},
		model.UploadItem{Category: model.CategoryOptionIndividual, FileName: "d.jpg", State: model.ItemSucceeded, Key: "k4"},
	)
	req, err := BuildStudio(validForm(), items, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, []string{"k1"}, req.ImageKeys.MainImageKeys)
	assert.Equal(t, "k2", req.ImageKeys.BlueprintImageKey)
	assert.Equal(t, []string{"k3"}, req.ImageKeys.CommonOptionImageKeys)
	assert.Equal(t, []string{"k4"}, req.ImageKeys.IndividualOptionImageKeys)
	assert.Equal(t, []string{"k1", "k2", "k3", "k4"}, req.ImageKeys.AllKeys())
	assert.NotNil(t, req.OptionCodes)
}

func TestRulesFromConfig(t *testing.T) {
	rules, err := RulesFromConfig(map[string]config.CategoryLimit{"room": {Min: 1, Max: 5}})
	require.NoError(t, err)
	assert.Equal(t, Limit{Min: 1, Max: 5}, rules[model.CategoryRoom])
	assert.Equal(t, Limit{Min: 1, Max: 3}, rules[model.CategoryMain])

	_, err = RulesFromConfig(map[string]config.CategoryLimit{"POSTER": {Max: 1}})
	assert.Error(t, err)

	_, err = RulesFromConfig(map[string]config.CategoryLimit{"BLUEPRINT": {Min: 1, Max: 2}})
	assert.Error(t, err)
}
