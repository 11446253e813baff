package mint

import "academia/internal/upload"

// Stage names where a mint attempt stopped.
const (
	StagePrecondition = "precondition"
	StagePinFile      = "pin_file"
	StagePinMetadata  = "pin_metadata"
	StageMint         = "mint"
	StageMinted       = "minted"
)

// Status strings shown to the user.
const (
	StatusUploadingFile     = "Uploading file to pinning service..."
	StatusUploadingMetadata = "Uploading metadata JSON..."
	StatusMetadataUploaded  = "Metadata uploaded"
	StatusPreparing         = "Preparing mint..."
	StatusMetadataMissing   = "Mint failed (metadata missing)"
	StatusMintFailed        = "Mint failed"
	StatusConnectWallet     = "Connect your wallet first"
)

// AssetRequest is what the minting primitive needs to create one asset.
type AssetRequest struct {
	URI                string
	Name               string
	Symbol             string
	RoyaltyBasisPoints int
	Recipient          string
}

// Asset is a minted on-chain asset.
type Asset struct {
	Address       string `json:"address"`
	TransactionID string `json:"transaction_id,omitempty"`
	ExplorerURL   string `json:"explorer_url,omitempty"`
}

// Request is one mint attempt from the mint screen.
type Request struct {
	File      upload.File
	Recipient string
}

// Result is everything the mint screen displays after an attempt.
type Result struct {
	UploadStatus  string   `json:"upload_status"`
	MintStatus    string   `json:"mint_status"`
	Progress      []string `json:"progress"`
	FileURL       string   `json:"file_url,omitempty"`
	MetadataURL   string   `json:"metadata_url,omitempty"`
	MetadataURI   string   `json:"metadata_uri,omitempty"`
	AssetAddress  string   `json:"asset_address,omitempty"`
	TransactionID string   `json:"transaction_id,omitempty"`
	ExplorerURL   string   `json:"explorer_url,omitempty"`
	Stage         string   `json:"stage"`
}

func (r *Result) upload(status string) {
	r.UploadStatus = status
	r.Progress = append(r.Progress, status)
}

func (r *Result) mint(status string) {
	r.MintStatus = status
	r.Progress = append(r.Progress, status)
}

// Attribute is one trait of the metadata document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Metadata is the JSON document pinned next to the file.
type Metadata struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// Collection describes the display fields written for every asset.
type Collection struct {
	Name               string
	Symbol             string
	MetadataName       string
	Description        string
	Issuer             string
	RoyaltyBasisPoints int
}

// BuildMetadata renders the metadata document for a pinned file.
func (c Collection) BuildMetadata(imageURL string) Metadata {
	return Metadata{
		Name:        c.MetadataName,
		Symbol:      c.Symbol,
		Description: c.Description,
		Image:       imageURL,
		Attributes:  []Attribute{{TraitType: "Issuer", Value: c.Issuer}},
	}
}
