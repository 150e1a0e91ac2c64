package model

// StudioForm holds the studio creation form values other than images.
type StudioForm struct {
	StudioName               string          `json:"studioName" yaml:"studioName"`
	StudioMinPrice           *int64          `json:"studioMinPrice" yaml:"studioMinPrice"`
	StudioMaxPrice           *int64          `json:"studioMaxPrice" yaml:"studioMaxPrice"`
	DepositAmount            *int64          `json:"depositAmount" yaml:"depositAmount"`
	Introduction             string          `json:"introduction" yaml:"introduction"`
	OwnerPhoneNumber         string          `json:"ownerPhoneNumber" yaml:"ownerPhoneNumber"`
	AddressInfo              AddressInfo     `json:"addressInfo" yaml:"addressInfo"`
	BuildingInfo             BuildingInfo    `json:"buildingInfo" yaml:"buildingInfo"`
	NearbyStations           []NearbyStation `json:"nearbyStations" yaml:"nearbyStations"`
	OptionCodes              []string        `json:"optionCodes" yaml:"optionCodes"`
	ForbiddenInstrumentCodes []string        `json:"forbiddenInstrumentCodes" yaml:"forbiddenInstrumentCodes"`
	Rooms                    []Room          `json:"rooms" yaml:"rooms"`
}

type AddressInfo struct {
	ZipCode         string `json:"zipCode" yaml:"zipCode"`
	RoadAddress     string `json:"roadAddress" yaml:"roadAddress"`
	JibunAddress    string `json:"jibunAddress" yaml:"jibunAddress"`
	DetailedAddress string `json:"detailedAddress" yaml:"detailedAddress"`
}

type BuildingInfo struct {
	FloorType              string `json:"floorType" yaml:"floorType"`
	FloorNumber            int    `json:"floorNumber" yaml:"floorNumber"`
	RestroomType           string `json:"restroomType" yaml:"restroomType"`
	IsParkingAvailable     bool   `json:"isParkingAvailable" yaml:"isParkingAvailable"`
	IsLodgingAvailable     bool   `json:"isLodgingAvailable" yaml:"isLodgingAvailable"`
	HasFireInsurance       bool   `json:"hasFireInsurance" yaml:"hasFireInsurance"`
	ParkingFeeType         string `json:"parkingFeeType" yaml:"parkingFeeType"`
	ParkingFeeInfo         string `json:"parkingFeeInfo" yaml:"parkingFeeInfo"`
	ParkingSpots           int    `json:"parkingSpots" yaml:"parkingSpots"`
	ParkingLocationName    string `json:"parkingLocationName" yaml:"parkingLocationName"`
	ParkingLocationAddress string `json:"parkingLocationAddress" yaml:"parkingLocationAddress"`
}

// NearbyStation is a selected subway station. Sequence is the 1-based rank.
type NearbyStation struct {
	SubwayStationID string `json:"subwayStationId" yaml:"subwayStationId"`
	Sequence        string `json:"sequence" yaml:"sequence"`
}

type Room struct {
	RoomName      string `json:"roomName" yaml:"roomName"`
	IsAvailable   bool   `json:"isAvailable" yaml:"isAvailable"`
	AvailableAt   string `json:"availableAt" yaml:"availableAt"`
	WidthMm       string `json:"widthMm" yaml:"widthMm"`
	HeightMm      string `json:"heightMm" yaml:"heightMm"`
	RoomBasePrice string `json:"roomBasePrice" yaml:"roomBasePrice"`
}

// ImageKeys groups uploaded object keys by category.
type ImageKeys struct {
	MainImageKeys             []string `json:"mainImageKeys"`
	BuildingImageKeys         []string `json:"buildingImageKeys"`
	RoomImageKeys             []string `json:"roomImageKeys"`
	BlueprintImageKey         string   `json:"blueprintImageKey"`
	CommonOptionImageKeys     []string `json:"commonOptionImageKeys,omitempty"`
	IndividualOptionImageKeys []string `json:"individualOptionImageKeys,omitempty"`
}

// StudioCreateRequest is the composite payload of POST /api/admin/studios.
type StudioCreateRequest struct {
	StudioForm
	ImageKeys ImageKeys `json:"imageKeys"`
}

// StudioCreated is the create endpoint's answer. StudioID is zero when the
// backend does not echo it.
type StudioCreated struct {
	StudioID int64 `json:"studioId"`
}

// FilterOption is one selectable code for a form select input.
type FilterOption struct {
	ID           *int64  `json:"id"`
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	IconImageURL *string `json:"iconImageUrl"`
}

type FilterOptions struct {
	FloorOptions                 []FilterOption `json:"floorOptions"`
	RestroomOptions              []FilterOption `json:"restroomOptions"`
	ParkingFeeOptions            []FilterOption `json:"parkingFeeOptions"`
	StudioCommonOptions          []FilterOption `json:"studioCommonOptions"`
	StudioIndividualOptions      []FilterOption `json:"studioIndividualOptions"`
	UnavailableInstrumentOptions []FilterOption `json:"unavailableInstrumentOptions"`
}

type SubwayLine struct {
	LineName  string `json:"lineName"`
	LineColor string `json:"lineColor"`
}

type StationInfo struct {
	StationID      int64        `json:"stationId"`
	StationName    string       `json:"stationName"`
	Lines          []SubwayLine `json:"lines"`
	DistanceMeters int          `json:"distanceMeters"`
}

type NearbyStations struct {
	Stations []StationInfo `json:"stations"`
}

type NearbySubwayStationInfo struct {
	StationName        string       `json:"stationName"`
	Lines              []SubwayLine `json:"lines"`
	WalkingTimeMinutes *int         `json:"walkingTimeMinutes"`
}

type StudioSummary struct {
	StudioID                int64                   `json:"studioId"`
	StudioName              string                  `json:"studioName"`
	MinPrice                *int64                  `json:"minPrice"`
	MaxPrice                *int64                  `json:"maxPrice"`
	NearbySubwayStationInfo NearbySubwayStationInfo `json:"nearbySubwayStationInfo"`
	ThumbnailImageURL       string                  `json:"thumbnailImageUrl"`
	WalkingTimeMinutes      *int                    `json:"walkingTimeMinutes"`
	Longitude               float64                 `json:"longitude"`
	Latitude                float64                 `json:"latitude"`
}

type Pagination struct {
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	IsFirst       bool  `json:"isFirst"`
	IsLast        bool  `json:"isLast"`
}

type StudioPage struct {
	Content    []StudioSummary `json:"content"`
	Pagination Pagination      `json:"pagination"`
}

// CodeDescription is an enum value the backend serialises as an object.
type CodeDescription struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type StudioDetail struct {
	StudioBaseInfo struct {
		StudioID             int64                     `json:"studioId"`
		StudioName           string                    `json:"studioName"`
		RoadNameAddress      string                    `json:"roadNameAddress"`
		LotNumberAddress     string                    `json:"lotNumberAddress"`
		DetailedAddress      string                    `json:"detailedAddress"`
		StudioMinPrice       *int64                    `json:"studioMinPrice"`
		StudioMaxPrice       *int64                    `json:"studioMaxPrice"`
		DepositAmount        *int64                    `json:"depositAmount"`
		NearbySubwayStations []NearbySubwayStationInfo `json:"nearbySubwayStations"`
	} `json:"studioBaseInfo"`
	StudioBuildingInfo struct {
		FloorType              CodeDescription  `json:"floorType"`
		FloorNumber            int              `json:"floorNumber"`
		HasRestroom            bool             `json:"hasRestroom"`
		RestroomLocation       *CodeDescription `json:"restroomLocation"`
		RestroomGender         *CodeDescription `json:"restroomGender"`
		ParkingFeeType         *CodeDescription `json:"parkingFeeType"`
		ParkingFeeInfo         *string          `json:"parkingFeeInfo"`
		ParkingSpots           *int             `json:"parkingSpots"`
		ParkingLocationName    *string          `json:"parkingLocationName"`
		ParkingLocationAddress *string          `json:"parkingLocationAddress"`
		IsLodgingAvailable     bool             `json:"isLodgingAvailable"`
		HasFireInsurance       bool             `json:"hasFireInsurance"`
	} `json:"studioBuildingInfo"`
	StudioNotice struct {
		OwnerNickname      string `json:"ownerNickname"`
		OwnerPhoneNumber   string `json:"ownerPhoneNumber"`
		Introduction       string `json:"introduction"`
		IsIdentityVerified bool   `json:"isIdentityVerified"`
	} `json:"studioNotice"`
	StudioForbiddenInstruments struct {
		Instruments []string `json:"instruments"`
	} `json:"studioForbiddenInstruments"`
	StudioRooms struct {
		Rooms []RoomDetail `json:"rooms"`
	} `json:"studioRooms"`
	StudioOptions struct {
		CommonOptions     []OptionDetail `json:"commonOptions"`
		IndividualOptions []OptionDetail `json:"individualOptions"`
	} `json:"studioOptions"`
	StudioImages ImageKeys `json:"studioImages"`

	// ImagePreviews maps storage keys to short-lived read URLs. Filled in by
	// the dashboard when object storage is configured.
	ImagePreviews map[string]string `json:"imagePreviews,omitempty"`
}

type RoomDetail struct {
	RoomID        int64   `json:"roomId"`
	RoomName      string  `json:"roomName"`
	IsAvailable   bool    `json:"isAvailable"`
	AvailableAt   *string `json:"availableAt"`
	WidthMm       *int    `json:"widthMm"`
	HeightMm      *int    `json:"heightMm"`
	RoomBasePrice *int64  `json:"roomBasePrice"`
}

type OptionDetail struct {
	Code         string `json:"code"`
	Description  string `json:"description"`
	IconImageKey string `json:"iconImageKey"`
}

// AllKeys returns every image key in display order.
func (k ImageKeys) AllKeys() []string {
	keys := make([]string, 0, len(k.MainImageKeys)+len(k.BuildingImageKeys)+len(k.RoomImageKeys)+1)
	keys = append(keys, k.MainImageKeys...)
	keys = append(keys, k.BuildingImageKeys...)
	keys = append(keys, k.RoomImageKeys...)
	if k.BlueprintImageKey != "" {
		keys = append(keys, k.BlueprintImageKey)
	}
	keys = append(keys, k.CommonOptionImageKeys...)
	keys = append(keys, k.IndividualOptionImageKeys...)
	return keys
}
