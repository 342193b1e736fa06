package lazada

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/kelvintan1101/erp/internal/domain"
)

// The product-create payload is the one Lazada call that takes a structured
// XML document instead of flat params. Built with encoding/xml so free-text
// fields (name, description) are escaped rather than spliced in raw.

type productRequest struct {
	XMLName xml.Name       `xml:"Request"`
	Product productSection `xml:"Product"`
}

type productSection struct {
	PrimaryCategory string            `xml:"PrimaryCategory"`
	SPUID           string            `xml:"SPUId"`
	AssociatedSku   string            `xml:"AssociatedSku"`
	Images          imageList         `xml:"Images"`
	Attributes      productAttributes `xml:"Attributes"`
	Skus            skuList           `xml:"Skus"`
}

type imageList struct {
	Image []string `xml:"Image"`
}

type productAttributes struct {
	Name             string `xml:"name"`
	ShortDescription string `xml:"short_description"`
}

type skuList struct {
	Sku []skuSection `xml:"Sku"`
}

type skuSection struct {
	SellerSku     string    `xml:"SellerSku"`
	Quantity      int       `xml:"quantity"`
	Price         string    `xml:"price"`
	PackageLength int       `xml:"package_length"`
	PackageHeight int       `xml:"package_height"`
	PackageWeight int       `xml:"package_weight"`
	PackageWidth  int       `xml:"package_width"`
	Images        imageList `xml:"Images"`
}

// BuildProductPayload serializes an inventory item into the Lazada
// product-creation XML document, one SKU entry per item.
func BuildProductPayload(item *domain.InventoryItem) (string, error) {
	req := productRequest{
		Product: productSection{
			PrimaryCategory: item.Category,
			Images:          imageList{Image: item.Images},
			Attributes: productAttributes{
				Name:             item.Name,
				ShortDescription: item.Description,
			},
			Skus: skuList{
				Sku: []skuSection{
					{
						SellerSku:     item.SKU,
						Quantity:      item.Quantity,
						Price:         strconv.FormatFloat(item.Price, 'f', 2, 64),
						PackageLength: 1,
						PackageHeight: 1,
						PackageWeight: 1,
						PackageWidth:  1,
						Images:        imageList{Image: item.Images},
					},
				},
			},
		},
	}

	body, err := xml.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to build product payload: %w", err)
	}

	return xml.Header + string(body), nil
}
