package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
)

type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (int64, error)
	Login(ctx context.Context, userID int64, password string) (*domain.User, *domain.Session, error)
	Logout(ctx context.Context, sess domain.Session) error
}

type CatalogService interface {
	Search(ctx context.Context, sess domain.Session, raw string) ([]*domain.Product, error)
	View(ctx context.Context, sess domain.Session, productID int64) (*domain.Product, error)
}

type CartService interface {
	AddItem(ctx context.Context, sess domain.Session, productID int64, qty int) error
	SetQuantity(ctx context.Context, sess domain.Session, productID int64, qty int) error
	RemoveItem(ctx context.Context, sess domain.Session, productID int64) error
	ListItems(ctx context.Context, sess domain.Session) (*domain.Cart, error)
}

type OrderService interface {
	Checkout(ctx context.Context, sess domain.Session, shippingAddress string) (*domain.Receipt, error)
	ListOrders(ctx context.Context, customerID int64) ([]*domain.Order, error)
	OrderDetail(ctx context.Context, orderID int64) (*domain.Order, error)
}

type InventoryService interface {
	Get(ctx context.Context, productID int64) (*domain.Product, error)
	SetStock(ctx context.Context, productID int64, count int) error
	SetPrice(ctx context.Context, productID int64, price decimal.Decimal) error
}

type ReportService interface {
	Weekly(ctx context.Context, now time.Time) (*domain.SalesReport, error)
	TopProducts(ctx context.Context) (*domain.TopProducts, error)
}

type ShopDeps struct {
	Auth      AuthService
	Catalog   CatalogService
	Cart      CartService
	Orders    OrderService
	Inventory InventoryService
	Reports   ReportService
}

// Shop is the store's menu-driven terminal UI.
type Shop struct {
	*Terminal
	d   ShopDeps
	log *slog.Logger
	now func() time.Time
}

func NewShop(term *Terminal, d ShopDeps, log *slog.Logger) *Shop {
	return &Shop{Terminal: term, d: d, log: log.With("component", "cli"), now: time.Now}
}

// Run shows the main menu until the user exits or input ends.
func (s *Shop) Run(ctx context.Context) error {
	err := s.mainMenu(ctx)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		s.log.ErrorContext(ctx, "shop menu stopped", slog.Any("error", err))
	}
	return err
}

func (s *Shop) mainMenu(ctx context.Context) error {
	for {
		s.header("MAIN MENU")
		s.println("1. Login")
		s.println("2. Sign Up")
		s.println("3. Exit")

		choice, err := s.prompt("Enter your choice: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.login(ctx)
		case "2":
			err = s.signup(ctx)
		case "3":
			s.println("Thank you for using our system. Goodbye!")
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shop) signup(ctx context.Context) error {
	s.header("SIGN UP")

	var answers [4]string
	for i, label := range []string{"Name: ", "Email: ", "Password: ", "Confirm Password: "} {
		a, err := s.prompt(label)
		if err != nil {
			return err
		}
		answers[i] = a
	}
	if answers[2] != answers[3] {
		s.println("Passwords do not match.")
		return nil
	}

	id, err := s.d.Auth.Signup(ctx, answers[0], answers[1], answers[2])
	if err != nil {
		return s.reportError(err)
	}
	s.printf("Registration successful! Your User ID is: %d\n", id)
	s.println("Please use this ID to login.")
	return nil
}

func (s *Shop) login(ctx context.Context) error {
	s.header("LOGIN")

	raw, err := s.prompt("Enter User ID: ")
	if err != nil {
		return err
	}
	uid, convErr := strconv.ParseInt(raw, 10, 64)
	if convErr != nil {
		s.println("Invalid User ID. Must be a number.")
		return nil
	}
	pwd, err := s.prompt("Enter Password: ")
	if err != nil {
		return err
	}

	u, sess, err := s.d.Auth.Login(ctx, uid, pwd)
	if err != nil {
		return s.reportError(err)
	}

	if u.Role == domain.RoleSalesperson {
		s.println("Login successful! Welcome, salesperson.")
		return s.salesMenu(ctx)
	}
	s.printf("Login successful! Session #%d started.\n", sess.SessionNo)
	return s.customerMenu(ctx, *sess)
}

func (s *Shop) customerMenu(ctx context.Context, sess domain.Session) error {
	for {
		s.header("CUSTOMER MENU")
		s.println("1. Search for products")
		s.println("2. View cart")
		s.println("3. My orders")
		s.println("4. Logout")

		choice, err := s.prompt("Enter your choice: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.search(ctx, sess)
		case "2":
			err = s.viewCart(ctx, sess)
		case "3":
			err = s.myOrders(ctx, sess)
		case "4":
			if err := s.d.Auth.Logout(ctx, sess); err != nil {
				return err
			}
			s.println("Logged out.")
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shop) search(ctx context.Context, sess domain.Session) error {
	raw, err := s.prompt("Enter search keywords: ")
	if err != nil {
		return err
	}

	products, err := s.d.Catalog.Search(ctx, sess, raw)
	if err != nil {
		return s.reportError(err)
	}
	if len(products) == 0 {
		s.println("No products found.")
		return nil
	}

	s.printf("Found %d product(s).\n", len(products))
	return browse(s.Terminal, products,
		func(n int, p *domain.Product) {
			s.printf("%d. [%d] %s - $%s\n", n, p.ID, p.Name, p.Price.StringFixed(2))
			s.printf("   %s | Stock: %d\n", p.Category, p.StockCount)
		},
		func(p *domain.Product) error { return s.productDetail(ctx, sess, p.ID) })
}

func (s *Shop) productDetail(ctx context.Context, sess domain.Session, productID int64) error {
	p, err := s.d.Catalog.View(ctx, sess, productID)
	if err != nil {
		return s.reportError(err)
	}

	s.header("PRODUCT DETAILS")
	s.printProduct(p)

	if !p.InStock() {
		s.println("Product out of stock.")
		return nil
	}
	ok, err := s.confirm("Add to cart?")
	if err != nil || !ok {
		return err
	}
	if err := s.d.Cart.AddItem(ctx, sess, p.ID, 1); err != nil {
		return s.reportError(err)
	}
	s.printf("Added %s to cart.\n", p.Name)
	return nil
}

func (s *Shop) printProduct(p *domain.Product) {
	s.printf("ID: %d\n", p.ID)
	s.printf("Name: %s\n", p.Name)
	s.printf("Category: %s\n", p.Category)
	s.printf("Price: $%s\n", p.Price.StringFixed(2))
	s.printf("Stock: %d\n", p.StockCount)
	s.printf("Description: %s\n", p.Description)
}

func (s *Shop) viewCart(ctx context.Context, sess domain.Session) error {
	for {
		c, err := s.d.Cart.ListItems(ctx, sess)
		if err != nil {
			return s.reportError(err)
		}

		s.header("YOUR CART")
		if c.IsEmpty() {
			s.println("Your cart is empty.")
			return nil
		}
		for i, l := range c.Lines {
			s.printf("%d. [%d] %s - $%s x %d = $%s\n", i+1, l.Product.ID, l.Product.Name,
				l.Product.Price.StringFixed(2), l.Quantity, l.Subtotal.StringFixed(2))
			if l.Exceeds() {
				s.printf("   Only %d in stock.\n", l.Product.StockCount)
			}
		}
		s.printf("Total: $%s\n", c.Total.StringFixed(2))

		choice, err := s.prompt("\nOptions: [U]pdate quantity, [R]emove item, [C]heckout, [B]ack: ")
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "u":
			l, ok, err := s.pickLine(c)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			qty, ok, err := s.promptInt("New quantity: ")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := s.d.Cart.SetQuantity(ctx, sess, l.Product.ID, int(qty)); err != nil {
				if err := s.reportError(err); err != nil {
					return err
				}
				continue
			}
			s.println("Quantity updated.")
		case "r":
			l, ok, err := s.pickLine(c)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := s.d.Cart.RemoveItem(ctx, sess, l.Product.ID); err != nil {
				if err := s.reportError(err); err != nil {
					return err
				}
				continue
			}
			s.println("Item removed.")
		case "c":
			done, err := s.checkout(ctx, sess, c)
			if err != nil || done {
				return err
			}
		case "b":
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
	}
}

func (s *Shop) pickLine(c *domain.Cart) (domain.CartLine, bool, error) {
	n, ok, err := s.promptInt("Item number: ")
	if err != nil || !ok {
		return domain.CartLine{}, false, err
	}
	if n < 1 || int(n) > len(c.Lines) {
		s.println("Invalid selection.")
		return domain.CartLine{}, false, nil
	}
	return c.Lines[n-1], true, nil
}

func (s *Shop) checkout(ctx context.Context, sess domain.Session, c *domain.Cart) (bool, error) {
	s.header("CHECKOUT")
	s.printf("Order total: $%s\n", c.Total.StringFixed(2))

	address, err := s.prompt("Shipping address: ")
	if err != nil {
		return false, err
	}
	ok, err := s.confirm("Confirm order?")
	if err != nil {
		return false, err
	}
	if !ok {
		s.println("Checkout cancelled.")
		return false, nil
	}

	receipt, err := s.d.Orders.Checkout(ctx, sess, address)
	if err != nil {
		return false, s.reportError(err)
	}
	s.printf("Order #%d placed. Total charged: $%s\n", receipt.OrderID, receipt.Total.StringFixed(2))
	return true, nil
}

func (s *Shop) myOrders(ctx context.Context, sess domain.Session) error {
	orders, err := s.d.Orders.ListOrders(ctx, sess.CustomerID)
	if err != nil {
		return s.reportError(err)
	}
	if len(orders) == 0 {
		s.println("You have no orders yet.")
		return nil
	}

	return browse(s.Terminal, orders,
		func(n int, o *domain.Order) {
			s.printf("%d. Order #%d - %s\n", n, o.ID, o.Date.Format(time.DateOnly))
			s.printf("   Address: %s\n", o.ShippingAddress)
			s.printf("   Total: $%s\n", o.Total.StringFixed(2))
		},
		func(o *domain.Order) error { return s.orderDetail(ctx, o.ID) })
}

func (s *Shop) orderDetail(ctx context.Context, orderID int64) error {
	o, err := s.d.Orders.OrderDetail(ctx, orderID)
	if err != nil {
		return s.reportError(err)
	}

	s.header("ORDER DETAILS")
	s.printf("Order #%d - %s\n", o.ID, o.Date.Format(time.DateTime))
	s.printf("Address: %s\n", o.ShippingAddress)
	for _, l := range o.Lines {
		s.printf("  %s (%s) %d x $%s = $%s\n", l.ProductName, l.Category, l.Quantity,
			l.UnitPrice.StringFixed(2), l.Total().StringFixed(2))
	}
	s.printf("Grand Total: $%s\n", o.Total.StringFixed(2))
	return nil
}

func (s *Shop) salesMenu(ctx context.Context) error {
	for {
		s.header("SALESPERSON MENU")
		s.println("1. Check/Update products")
		s.println("2. Sales report")
		s.println("3. Top-selling products")
		s.println("4. Logout")

		choice, err := s.prompt("Enter your choice: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.manageProduct(ctx)
		case "2":
			err = s.salesReport(ctx)
		case "3":
			err = s.topProducts(ctx)
		case "4":
			s.println("Logged out.")
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shop) manageProduct(ctx context.Context) error {
	pid, ok, err := s.promptInt("Enter product ID: ")
	if err != nil || !ok {
		return err
	}

	for {
		p, err := s.d.Inventory.Get(ctx, pid)
		if err != nil {
			return s.reportError(err)
		}
		s.header("PRODUCT")
		s.printProduct(p)

		choice, err := s.prompt("\nOptions: [P]rice, [S]tock, [B]ack: ")
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "p":
			raw, err := s.prompt("New price: ")
			if err != nil {
				return err
			}
			price, perr := decimal.NewFromString(raw)
			if perr != nil || !price.IsPositive() {
				s.println("Price must be positive.")
				continue
			}
			if err := s.d.Inventory.SetPrice(ctx, pid, price); err != nil {
				if err := s.reportError(err); err != nil {
					return err
				}
				continue
			}
			s.println("Price updated.")
		case "s":
			n, ok, err := s.promptInt("New stock count: ")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if n < 0 {
				s.println("Stock count cannot be negative.")
				continue
			}
			if err := s.d.Inventory.SetStock(ctx, pid, int(n)); err != nil {
				if err := s.reportError(err); err != nil {
					return err
				}
				continue
			}
			s.println("Stock updated.")
		case "b":
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
	}
}

func (s *Shop) salesReport(ctx context.Context) error {
	rep, err := s.d.Reports.Weekly(ctx, s.now())
	if err != nil {
		return s.reportError(err)
	}

	s.header("WEEKLY SALES REPORT")
	s.printf("Period: %s to %s\n", rep.Since.Format(time.DateOnly), s.now().Format(time.DateOnly))
	s.printf("Orders: %d\n", rep.Orders)
	s.printf("Distinct products sold: %d\n", rep.Products)
	s.printf("Distinct customers: %d\n", rep.Customers)
	s.printf("Average per customer: $%s\n", rep.AveragePerCustomer.StringFixed(2))
	s.printf("Total sales: $%s\n", rep.TotalSales.StringFixed(2))
	return nil
}

func (s *Shop) topProducts(ctx context.Context) error {
	top, err := s.d.Reports.TopProducts(ctx)
	if err != nil {
		return s.reportError(err)
	}

	s.header("TOP-SELLING PRODUCTS")
	s.println("--- By Orders ---")
	s.printRanks(top.ByOrders, "orders", "No order data available.")
	s.println("--- By Views ---")
	s.printRanks(top.ByViews, "views", "No view data available.")
	return nil
}

func (s *Shop) printRanks(ranks []domain.ProductRank, unit, empty string) {
	if len(ranks) == 0 {
		s.println(empty)
		return
	}
	for i, r := range ranks {
		s.printf("%d. [%d] %s - %d %s\n", i+1, r.ProductID, r.Name, r.Score, unit)
	}
}
