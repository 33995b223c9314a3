// Package shell is a line-oriented storefront driven by a store.Store.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cast"

	"cookiq/models"
	"cookiq/store"
)

const prompt = "cookiq> "

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

type Shell struct {
	store    *store.Store
	out      io.Writer
	commands map[string]command
	// draft is the last generated post, used by write when no content is
	// given.
	draft string
}

func New(st *store.Store, out io.Writer) *Shell {
	sh := &Shell{store: st, out: out}
	sh.commands = map[string]command{
		"help":           {"help", "list commands", sh.help},
		"login":          {"login <email> <password>", "sign in", sh.login},
		"register":       {"register <email> <password> <full name>", "create an account", sh.register},
		"logout":         {"logout", "sign out", sh.logout},
		"whoami":         {"whoami", "show the signed-in user", sh.whoami},
		"refresh":        {"refresh", "reload products and posts", sh.refresh},
		"products":       {"products [category] [page]", "list products", sh.products},
		"featured":       {"featured", "show featured products", sh.featured},
		"add":            {"add <productID>", "add a product to the cart", sh.add},
		"remove":         {"remove <productID>", "remove a product from the cart", sh.remove},
		"cart":           {"cart", "show the cart", sh.cart},
		"checkout":       {"checkout <COD|BANK|QR> <phone> <address>", "place an order", sh.checkout},
		"orders":         {"orders", "list orders", sh.orders},
		"status":         {"status <orderID> <STATUS>", "change an order status (admin)", sh.status},
		"blogs":          {"blogs [category]", "list blog posts", sh.blogs},
		"post":           {"post <id>", "show a blog post", sh.post},
		"comment":        {"comment <blogID> <text>", "comment on a post", sh.comment},
		"write":          {"write <category> <title> | <content>", "submit a blog post (content defaults to the last draft)", sh.write},
		"draft":          {"draft <category> <topic>", "let the AI writer draft a post", sh.generateDraft},
		"approve":        {"approve <id>", "approve a pending post (admin)", sh.approve},
		"reject":         {"reject <id>", "reject a pending post (admin)", sh.reject},
		"delete-post":    {"delete-post <id>", "delete a post (admin)", sh.deletePost},
		"new-product":    {"new-product <category> | <name> | <price> | <stock>", "create a product (admin)", sh.newProduct},
		"delete-product": {"delete-product <id>", "delete a product (admin)", sh.deleteProduct},
		"profile":        {"profile <avatarURL|-> <full name>", "update your profile", sh.profile},
		"users":          {"users", "list users (admin)", sh.users},
		"delete-user":    {"delete-user <id>", "delete a user (admin)", sh.deleteUser},
		"upload":         {"upload <path>", "upload an image", sh.upload},
	}
	return sh
}

// Run executes commands from in until it is exhausted, "quit" is read or
// ctx is done.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(sh.out, prompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if quit := sh.Exec(ctx, scanner.Text()); quit {
			return nil
		}
		fmt.Fprint(sh.out, prompt)
	}
	return scanner.Err()
}

// Exec runs one command line and reports whether the shell should stop.
func (sh *Shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "quit" || name == "exit" {
		return true
	}

	cmd, ok := sh.commands[name]
	if !ok {
		fmt.Fprintf(sh.out, "unknown command %q, try help\n", name)
		return false
	}
	if err := cmd.run(ctx, args); err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
	}
	return false
}

func usageError(cmd string, sh *Shell) error {
	return fmt.Errorf("usage: %s", sh.commands[cmd].usage)
}

func (sh *Shell) help(context.Context, []string) error {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", sh.commands[name].usage, sh.commands[name].help)
	}
	fmt.Fprintf(w, "quit\tleave the shell\n")
	return w.Flush()
}

func (sh *Shell) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("login", sh)
	}
	if !sh.store.Login(ctx, args[0], args[1]) {
		return fmt.Errorf("login failed for %s", args[0])
	}
	fmt.Fprintf(sh.out, "welcome, %s\n", sh.store.Identity().Name)
	return nil
}

func (sh *Shell) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usageError("register", sh)
	}
	if !sh.store.Register(ctx, strings.Join(args[2:], " "), args[0], args[1]) {
		return fmt.Errorf("could not register %s", args[0])
	}
	fmt.Fprintln(sh.out, "account created, you can log in now")
	return nil
}

func (sh *Shell) logout(context.Context, []string) error {
	sh.store.Logout()
	fmt.Fprintln(sh.out, "signed out")
	return nil
}

func (sh *Shell) whoami(context.Context, []string) error {
	id := sh.store.Identity()
	if id == nil {
		fmt.Fprintln(sh.out, "anonymous")
		return nil
	}
	fmt.Fprintf(sh.out, "%s <%s> %s\n", id.Name, id.Email, id.Role)
	return nil
}

func (sh *Shell) refresh(ctx context.Context, _ []string) error {
	sh.store.RefreshProducts(ctx)
	sh.store.RefreshBlogs(ctx)
	fmt.Fprintf(sh.out, "%d products, %d posts\n", len(sh.store.Products()), len(sh.store.VisibleBlogs()))
	return nil
}

const productsPerPage = 10

func (sh *Shell) products(_ context.Context, args []string) error {
	page := 1
	if n := len(args); n > 0 {
		if p, err := cast.ToIntE(args[n-1]); err == nil {
			page = p
			args = args[:n-1]
		}
	}

	var category store.ProductCategory
	if len(args) > 0 {
		c, ok := store.ParseProductCategory(strings.Join(args, " "))
		if !ok {
			return fmt.Errorf("unknown category, one of: %s", strings.Join(models.ProductCategories, ", "))
		}
		category = c
	}

	all := sh.store.ProductsByCategory(category)
	pages := store.PageCount(len(all), productsPerPage)
	sh.printProducts(store.Paginate(all, page, productsPerPage))
	if pages > 1 {
		fmt.Fprintf(sh.out, "page %d/%d\n", page, pages)
	}
	return nil
}

func (sh *Shell) featured(context.Context, []string) error {
	sh.printProducts(sh.store.FeaturedProducts(store.DefaultFeatured))
	return nil
}

func (sh *Shell) printProducts(products []store.Product) {
	if len(products) == 0 {
		fmt.Fprintln(sh.out, "no products")
		return
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, models.FormatVND(p.Price), p.Stock)
	}
	w.Flush()
}

func (sh *Shell) add(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("add", sh)
	}
	p, ok := sh.store.Product(args[0])
	if !ok {
		return fmt.Errorf("no product %s", args[0])
	}
	sh.store.AddToCart(p)
	fmt.Fprintf(sh.out, "added %s, %d items in cart\n", p.Name, sh.store.CartCount())
	return nil
}

func (sh *Shell) remove(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("remove", sh)
	}
	sh.store.RemoveFromCart(args[0])
	fmt.Fprintf(sh.out, "%d items in cart\n", sh.store.CartCount())
	return nil
}

func (sh *Shell) cart(context.Context, []string) error {
	lines := sh.store.Cart()
	if len(lines) == 0 {
		fmt.Fprintln(sh.out, "cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", l.Product.ID, l.Product.Name, l.Quantity, models.FormatVND(l.Subtotal()))
	}
	fmt.Fprintf(w, "\t\t%d\t%s\n", sh.store.CartCount(), models.FormatVND(sh.store.CartTotal()))
	return w.Flush()
}

func (sh *Shell) checkout(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usageError("checkout", sh)
	}
	details := store.OrderDetails{
		PaymentMethod: models.PaymentMethod(strings.ToUpper(args[0])),
		Phone:         args[1],
		Address:       strings.Join(args[2:], " "),
	}

	order, err := sh.store.PlaceOrder(ctx, details)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "order %s placed, total %s\n", order.ID, models.FormatVND(order.Total))

	info := store.PaymentInstructions(order.PaymentMethod, order.Total)
	fmt.Fprintln(sh.out, info.Label)
	for _, line := range info.Lines {
		fmt.Fprintf(sh.out, "  %s\n", line)
	}
	if info.QRImageURL != "" {
		fmt.Fprintf(sh.out, "  %s\n", info.QRImageURL)
	}
	return nil
}

func (sh *Shell) orders(ctx context.Context, _ []string) error {
	if sh.store.Identity() == nil {
		return store.ErrNotAuthenticated
	}
	sh.store.FetchOrders(ctx)
	orders := sh.store.Orders()
	if len(orders) == 0 {
		fmt.Fprintln(sh.out, "no orders")
		return nil
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tTOTAL\tPAYMENT\tSTATUS\tDATE")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.CustomerName, models.FormatVND(o.Total),
			o.PaymentMethod, o.Status, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (sh *Shell) status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("status", sh)
	}
	status := models.OrderStatus(strings.ToUpper(args[1]))
	if !status.Valid() {
		return fmt.Errorf("unknown status %s", args[1])
	}
	if err := sh.store.UpdateOrderStatus(ctx, args[0], status); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "order %s is now %s\n", args[0], status)
	return nil
}

func (sh *Shell) blogs(_ context.Context, args []string) error {
	posts := sh.store.VisibleBlogs()
	if len(args) > 0 {
		c, ok := store.ParseBlogCategory(strings.ToUpper(args[0]))
		if !ok {
			return fmt.Errorf("unknown category, one of: %s", strings.Join(models.BlogCategories, ", "))
		}
		posts = sh.store.BlogsByCategory(c)
	}
	if len(posts) == 0 {
		fmt.Fprintln(sh.out, "no posts")
		return nil
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tAUTHOR\tSTATUS\tCOMMENTS")
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Category.Label(), p.AuthorName, p.Status, len(p.Comments))
	}
	return w.Flush()
}

func (sh *Shell) post(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("post", sh)
	}
	p, ok := sh.store.Post(args[0])
	if !ok {
		return store.ErrUnknownPost
	}
	fmt.Fprintf(sh.out, "%s\n%s | %s | %s\n\n%s\n", p.Title, p.Category.Label(), p.AuthorName,
		p.CreatedAt.Format("2006-01-02"), p.Content)
	if len(p.Comments) > 0 {
		fmt.Fprintf(sh.out, "\n%d comments\n", len(p.Comments))
		for _, c := range p.Comments {
			fmt.Fprintf(sh.out, "  %s: %s\n", c.AuthorName, c.Content)
		}
	}
	return nil
}

func (sh *Shell) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("comment", sh)
	}
	if err := sh.store.AddComment(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "comment added")
	return nil
}

func (sh *Shell) write(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("write", sh)
	}
	category, ok := store.ParseBlogCategory(strings.ToUpper(args[0]))
	if !ok {
		return fmt.Errorf("unknown category, one of: %s", strings.Join(models.BlogCategories, ", "))
	}
	title, content, _ := strings.Cut(strings.Join(args[1:], " "), "|")
	title = strings.TrimSpace(title)
	if title == "" {
		return usageError("write", sh)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		content = sh.draft
	}
	draft := store.BlogDraft{Title: title, Category: category, Content: content}
	if err := sh.store.AddBlog(ctx, draft); err != nil {
		return err
	}
	sh.draft = ""
	id := sh.store.Identity()
	if id != nil && id.IsAdmin() {
		fmt.Fprintln(sh.out, "post published")
	} else {
		fmt.Fprintln(sh.out, "post submitted for review")
	}
	return nil
}

func (sh *Shell) generateDraft(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("draft", sh)
	}
	category, ok := store.ParseBlogCategory(strings.ToUpper(args[0]))
	if !ok {
		return fmt.Errorf("unknown category, one of: %s", strings.Join(models.BlogCategories, ", "))
	}

	text, err := sh.store.GenerateBlogDraft(ctx, strings.Join(args[1:], " "), category)
	if errors.Is(err, store.ErrDraftingDisabled) {
		fmt.Fprintln(sh.out, "AI drafting is off, set GEMINI_API_KEY to enable it")
		return nil
	}
	if err != nil {
		return err
	}
	sh.draft = text
	fmt.Fprintf(sh.out, "%s\n\n(draft kept, submit it with: write %s <title> |)\n", text, args[0])
	return nil
}

func (sh *Shell) approve(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("approve", sh)
	}
	if err := sh.store.ApproveBlog(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "post approved")
	return nil
}

func (sh *Shell) reject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("reject", sh)
	}
	if err := sh.store.RejectPending(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "post rejected")
	return nil
}

func (sh *Shell) deletePost(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("delete-post", sh)
	}
	if err := sh.store.DeleteBlog(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "post deleted")
	return nil
}

func (sh *Shell) newProduct(ctx context.Context, args []string) error {
	parts := strings.Split(strings.Join(args, " "), "|")
	if len(parts) != 4 {
		return usageError("new-product", sh)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	category, ok := store.ParseProductCategory(parts[0])
	if !ok {
		return fmt.Errorf("unknown category, one of: %s", strings.Join(models.ProductCategories, ", "))
	}
	price, err := cast.ToFloat64E(parts[2])
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	stock, err := cast.ToIntE(parts[3])
	if err != nil {
		return fmt.Errorf("stock: %w", err)
	}

	draft := store.ProductDraft{Name: parts[1], Category: category, Price: price, Stock: stock}
	if err := sh.store.AddProduct(ctx, draft); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "product %s created\n", draft.Name)
	return nil
}

func (sh *Shell) deleteProduct(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("delete-product", sh)
	}
	if err := sh.store.DeleteProduct(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "product deleted")
	return nil
}

func (sh *Shell) profile(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("profile", sh)
	}
	avatar := args[0]
	if avatar == "-" {
		avatar = ""
	}
	if err := sh.store.UpdateUserProfile(ctx, strings.Join(args[1:], " "), avatar); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "profile saved, hello %s\n", sh.store.Identity().Name)
	return nil
}

func (sh *Shell) users(ctx context.Context, _ []string) error {
	sh.store.FetchUsers(ctx)
	users := sh.store.Users()
	if len(users) == 0 {
		fmt.Fprintln(sh.out, "no users")
		return nil
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return w.Flush()
}

func (sh *Shell) deleteUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("delete-user", sh)
	}
	if err := sh.store.DeleteUser(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "user deleted")
	return nil
}

func (sh *Shell) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("upload", sh)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := sh.store.UploadImage(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, url)
	return nil
}
