package upload

import (
	"strconv"
	"strings"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
)

const (
	maxNearbyStations = 3
	parkingFeePaid    = "PAID"
)

// Validate checks the form and the per-category image counts. It makes no
// network calls and reports every problem at once.
func Validate(form model.StudioForm, items []model.UploadItem, rules Rules) error {
	v := &apperr.ValidationError{}

	required := []struct {
		field string
		value string
	}{
		{"studioName", form.StudioName},
		{"ownerPhoneNumber", form.OwnerPhoneNumber},
		{"addressInfo.roadAddress", form.AddressInfo.RoadAddress},
		{"addressInfo.jibunAddress", form.AddressInfo.JibunAddress},
		{"addressInfo.zipCode", form.AddressInfo.ZipCode},
		{"buildingInfo.floorType", form.BuildingInfo.FloorType},
		{"buildingInfo.restroomType", form.BuildingInfo.RestroomType},
		{"buildingInfo.parkingFeeType", form.BuildingInfo.ParkingFeeType},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			v.Add(r.field, "required")
		}
	}

	if form.StudioMinPrice != nil && form.StudioMaxPrice != nil && *form.StudioMinPrice > *form.StudioMaxPrice {
		v.Add("studioMinPrice", "must not exceed studioMaxPrice")
	}

	b := form.BuildingInfo
	if b.IsParkingAvailable && b.ParkingFeeType == parkingFeePaid && strings.TrimSpace(b.ParkingFeeInfo) == "" {
		v.Add("buildingInfo.parkingFeeInfo", "required for paid parking")
	}

	if len(form.NearbyStations) > maxNearbyStations {
		v.Add("nearbyStations", "at most %d stations, got %d", maxNearbyStations, len(form.NearbyStations))
	}

	if len(form.Rooms) == 0 {
		v.Add("rooms", "at least one room required")
	}
	for i, room := range form.Rooms {
		if strings.TrimSpace(room.RoomName) == "" {
			v.Add("rooms["+strconv.Itoa(i)+"].roomName", "required")
		}
	}

	counts := make(map[model.Category]int)
	for _, it := range items {
		if _, ok := rules[it.Category]; !ok {
			v.Add("images", "%s: unknown category %q", it.FileName, it.Category)
			continue
		}
		counts[it.Category]++
	}
	for _, cat := range model.Categories {
		limit, ok := rules[cat]
		if !ok {
			continue
		}
		n := counts[cat]
		if n < limit.Min {
			v.Add("images."+string(cat), "at least %d required, have %d", limit.Min, n)
		}
		if n > limit.Max {
			v.Add("images."+string(cat), "at most %d allowed, have %d", limit.Max, n)
		}
	}

	return v.OrNil()
}

// BuildStudio assembles the composite creation payload. Every item must have
// been uploaded; keys are grouped by category in selection order.
func BuildStudio(form model.StudioForm, items []model.UploadItem, rules Rules) (*model.StudioCreateRequest, error) {
	if err := Validate(form, items, rules); err != nil {
		return nil, err
	}

	v := &apperr.ValidationError{}
	keys := model.ImageKeys{
		MainImageKeys:     []string{},
		BuildingImageKeys: []string{},
		RoomImageKeys:     []string{},
	}
	for _, it := range items {
		if it.State != model.ItemSucceeded || it.Key == "" {
			v.Add("images."+string(it.Category), "%s is not uploaded (%s)", it.FileName, it.State)
			continue
		}
		switch it.Category {
		case model.CategoryMain:
			keys.MainImageKeys = append(keys.MainImageKeys, it.Key)
		case model.CategoryBuilding:
			keys.BuildingImageKeys = append(keys.BuildingImageKeys, it.Key)
		case model.CategoryRoom:
			keys.RoomImageKeys = append(keys.RoomImageKeys, it.Key)
		case model.CategoryBlueprint:
			keys.BlueprintImageKey = it.Key
		case model.CategoryOptionCommon:
			keys.CommonOptionImageKeys = append(keys.CommonOptionImageKeys, it.Key)
		case model.CategoryOptionIndividual:
			keys.IndividualOptionImageKeys = append(keys.IndividualOptionImageKeys, it.Key)
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	return &model.StudioCreateRequest{
		StudioForm: normalizeForm(form),
		ImageKeys:  keys,
	}, nil
}

// normalizeForm returns a copy ready to send: trimmed names, stations ranked
// 1..n, parking details dropped when there is no parking and nil lists as
// empty arrays.
func normalizeForm(form model.StudioForm) model.StudioForm {
	out := form
	out.StudioName = strings.TrimSpace(form.StudioName)
	out.OwnerPhoneNumber = strings.ReplaceAll(strings.TrimSpace(form.OwnerPhoneNumber), "-", "")

	out.NearbyStations = make([]model.NearbyStation, 0, len(form.NearbyStations))
	for i, st := range form.NearbyStations {
		out.NearbyStations = append(out.NearbyStations, model.NearbyStation{
			SubwayStationID: st.SubwayStationID,
			Sequence:        strconv.Itoa(i + 1),
		})
	}

	if !out.BuildingInfo.IsParkingAvailable {
		out.BuildingInfo.ParkingFeeInfo = ""
		out.BuildingInfo.ParkingSpots = 0
		out.BuildingInfo.ParkingLocationName = ""
		out.BuildingInfo.ParkingLocationAddress = ""
	}

	out.Rooms = make([]model.Room, len(form.Rooms))
	for i, r := range form.Rooms {
		r.RoomName = strings.TrimSpace(r.RoomName)
		out.Rooms[i] = r
	}
	if out.OptionCodes == nil {
		out.OptionCodes = []string{}
	}
	if out.ForbiddenInstrumentCodes == nil {
		out.ForbiddenInstrumentCodes = []string{}
	}
	return out
}
