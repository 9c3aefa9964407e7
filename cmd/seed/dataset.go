package main

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoDataset []byte

// Dataset is the YAML document describing one store to create. Monetary and
// quantity fields are strings so values like "27.90" keep their exact scale.
type Dataset struct {
	Company   CompanySeed    `yaml:"company"`
	Admin     UserSeed       `yaml:"admin"`
	Users     []UserSeed     `yaml:"users"`
	Products  []ProductSeed  `yaml:"products"`
	Customers []CustomerSeed `yaml:"customers"`
	Sales     []SaleSeed     `yaml:"sales"`
	Payments  []PaymentSeed  `yaml:"payments"`
}

type CompanySeed struct {
	Name         string `yaml:"name"`
	TradeName    string `yaml:"trade_name"`
	Document     string `yaml:"document"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	PixKey       string `yaml:"pix_key"`
	MerchantCity string `yaml:"merchant_city"`
	Timezone     string `yaml:"timezone"`
}

type UserSeed struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
}

type ProductSeed struct {
	Code         string `yaml:"code"`
	Barcode      string `yaml:"barcode"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Unit         string `yaml:"unit"`
	UnitPrice    string `yaml:"unit_price"`
	CostPrice    string `yaml:"cost_price"`
	InitialStock string `yaml:"initial_stock"`
	MinStock     string `yaml:"min_stock"`
}

type CustomerSeed struct {
	Name        string `yaml:"name"`
	Document    string `yaml:"document"`
	Email       string `yaml:"email"`
	Phone       string `yaml:"phone"`
	Address     string `yaml:"address"`
	City        string `yaml:"city"`
	State       string `yaml:"state"`
	CreditLimit string `yaml:"credit_limit"`
	Notes       string `yaml:"notes"`
}

// SaleSeed references its seller by username, its customer by document and
// its products by code.
type SaleSeed struct {
	Seller           string         `yaml:"seller"`
	Customer         string         `yaml:"customer"`
	PaymentMethod    string         `yaml:"payment_method"`
	InstallmentCount int            `yaml:"installment_count"`
	FirstDueInDays   *int           `yaml:"first_due_in_days"`
	Discount         string         `yaml:"discount"`
	Notes            string         `yaml:"notes"`
	Items            []SaleItemSeed `yaml:"items"`
}

type SaleItemSeed struct {
	Product   string `yaml:"product"`
	Quantity  string `yaml:"quantity"`
	UnitPrice string `yaml:"unit_price"`
}

// PaymentSeed pays down a customer's open installments, oldest first
type PaymentSeed struct {
	Customer string `yaml:"customer"`
	Amount   string `yaml:"amount"`
	Method   string `yaml:"method"`
	Notes    string `yaml:"notes"`
}

// LoadDataset reads path, or the embedded demo store when path is empty
func LoadDataset(path string) (*Dataset, error) {
	raw := demoDataset
	if path != "" {
		var err error
		if raw, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
	}
	return ParseDataset(raw)
}

// ParseDataset decodes and cross-checks a dataset. Unknown keys are rejected.
func ParseDataset(raw []byte) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (ds *Dataset) validate() error {
	if ds.Company.Name == "" {
		return errors.New("company.name is required")
	}
	if ds.Admin.Username == "" {
		return errors.New("admin.username is required")
	}

	users := map[string]bool{ds.Admin.Username: true}
	for i, u := range ds.Users {
		if users[u.Username] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		users[u.Username] = true
	}

	products := map[string]bool{}
	for i, p := range ds.Products {
		if products[p.Code] {
			return fmt.Errorf("products[%d]: duplicate code %q", i, p.Code)
		}
		products[p.Code] = true
		for field, v := range map[string]string{
			"unit_price": p.UnitPrice, "cost_price": p.CostPrice,
			"initial_stock": p.InitialStock, "min_stock": p.MinStock,
		} {
			if _, err := optionalDecimal(v); err != nil {
				return fmt.Errorf("products[%d].%s: %w", i, field, err)
			}
		}
	}

	customers := map[string]bool{}
	for i, c := range ds.Customers {
		if c.Document == "" {
			continue
		}
		if customers[c.Document] {
			return fmt.Errorf("customers[%d]: duplicate document %q", i, c.Document)
		}
		customers[c.Document] = true
		if _, err := optionalDecimal(c.CreditLimit); err != nil {
			return fmt.Errorf("customers[%d].credit_limit: %w", i, err)
		}
	}

	for i, s := range ds.Sales {
		if s.Seller != "" && !users[s.Seller] {
			return fmt.Errorf("sales[%d]: unknown seller %q", i, s.Seller)
		}
		if s.Customer != "" && !customers[s.Customer] {
			return fmt.Errorf("sales[%d]: unknown customer %q", i, s.Customer)
		}
		if _, err := optionalDecimal(s.Discount); err != nil {
			return fmt.Errorf("sales[%d].discount: %w", i, err)
		}
		for j, item := range s.Items {
			if !products[item.Product] {
				return fmt.Errorf("sales[%d].items[%d]: unknown product %q", i, j, item.Product)
			}
			if _, err := decimal.NewFromString(item.Quantity); err != nil {
				return fmt.Errorf("sales[%d].items[%d].quantity: %w", i, j, err)
			}
			if _, err := optionalDecimal(item.UnitPrice); err != nil {
				return fmt.Errorf("sales[%d].items[%d].unit_price: %w", i, j, err)
			}
		}
	}

	for i, p := range ds.Payments {
		if !customers[p.Customer] {
			return fmt.Errorf("payments[%d]: unknown customer %q", i, p.Customer)
		}
		if _, err := decimal.NewFromString(p.Amount); err != nil {
			return fmt.Errorf("payments[%d].amount: %w", i, err)
		}
	}
	return nil
}

// optionalDecimal parses v, returning nil for an empty string
func optionalDecimal(v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalOrZero(v string) decimal.Decimal {
	d, err := optionalDecimal(v)
	if err != nil || d == nil {
		return decimal.Zero
	}
	return *d
}
