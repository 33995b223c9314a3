package orders

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cookiq/account"
	"cookiq/cache"
	"cookiq/email"
	"cookiq/models"
)

// DeliverAfter is how long an order stays SHIPPING before it is marked
// DELIVERED by the scheduled job.
const DeliverAfter = 2 * time.Minute

var (
	errProductNotFound = errors.New("product not found")
	errOutOfStock      = errors.New("insufficient stock")
)

type OrdersModule struct {
	db     *gorm.DB
	guard  *account.Guard
	cache  *cache.Cache
	mailer *email.EmailService
	wg     sync.WaitGroup
}

func NewOrdersModule(db *gorm.DB, guard *account.Guard, c *cache.Cache, mailer *email.EmailService) *OrdersModule {
	return &OrdersModule{
		db:     db,
		guard:  guard,
		cache:  c,
		mailer: mailer,
	}
}

func (o *OrdersModule) RegisterRoutes(router *gin.Engine) {
	ordersGroup := router.Group("/api/orders", o.guard.RequireAuth)
	{
		ordersGroup.POST("/create", o.create)
		ordersGroup.GET("/my-orders", o.myOrders)
	}

	adminGroup := router.Group("/api/orders/admin", o.guard.RequireAuth, o.guard.RequireAdmin)
	{
		adminGroup.GET("/all", o.allOrders)
		adminGroup.PUT("/:id/status", o.updateStatus)
	}
}

func (o *OrdersModule) create(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order payload"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order has no items"})
		return
	}
	if !req.PaymentMethod.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown payment method"})
		return
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "every item needs a product and a positive quantity"})
			return
		}
	}

	now := time.Now()
	order := models.Order{
		ID:            uuid.NewString(),
		UserID:        account.UserID(c),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := o.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range req.Items {
			var product models.Product
			if err := tx.Where("id = ?", item.ProductID).First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", errProductNotFound, item.ProductID)
				}
				return err
			}
			if err := takeStock(tx, &product, item.Quantity); err != nil {
				return err
			}

			order.Items = append(order.Items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Price:       product.Price,
				Quantity:    item.Quantity,
				Image:       product.FirstImage(),
			})
			order.TotalAmount += product.Price * float64(item.Quantity)
		}
		return tx.Create(&order).Error
	})

	switch {
	case errors.Is(err, errProductNotFound), errors.Is(err, errOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		zap.S().Errorf("error creating order: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create order"})
		return
	}

	zap.L().Info("order created",
		zap.String("id", order.ID),
		zap.String("user", order.UserID),
		zap.Float64("total", order.TotalAmount),
	)

	if err := o.cache.Clear("products"); err != nil {
		zap.S().Warnf("could not clear product cache: %v", err)
	}
	o.sendConfirmation(order)

	c.JSON(http.StatusOK, order)
}

// takeStock decrements the stock of p by qty. The update only matches while
// enough stock is left, so concurrent orders cannot drive it below zero.
func takeStock(tx *gorm.DB, p *models.Product, qty int) error {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", p.ID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w for %s", errOutOfStock, p.Name)
	}
	return nil
}

// sendConfirmation mails the customer in the background.
func (o *OrdersModule) sendConfirmation(order models.Order) {
	if o.mailer == nil {
		return
	}
	var user models.User
	if err := o.db.Where("id = ?", order.UserID).First(&user).Error; err != nil {
		zap.S().Warnf("no recipient for order %s: %v", order.ID, err)
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.mailer.SendOrderConfirmation(user.Email, &order); err != nil {
			zap.S().Errorf("order %s: %v", order.ID, err)
		}
	}()
}

// Wait blocks until pending confirmation e-mails are sent.
func (o *OrdersModule) Wait() {
	o.wg.Wait()
}

func (o *OrdersModule) listOrders(c *gin.Context, query *gorm.DB) {
	var orders []models.Order
	if err := query.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		zap.S().Errorf("error listing orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (o *OrdersModule) myOrders(c *gin.Context) {
	o.listOrders(c, o.db.Where("user_id = ?", account.UserID(c)))
}

func (o *OrdersModule) allOrders(c *gin.Context) {
	o.listOrders(c, o.db)
}

func (o *OrdersModule) updateStatus(c *gin.Context) {
	next := models.OrderStatus(strings.ToUpper(c.Query("status")))
	if !next.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order status"})
		return
	}

	var order models.Order
	if err := o.db.Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if !order.Status.CanTransition(next) {
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("cannot move order from %s to %s", order.Status, next),
		})
		return
	}

	if order.Status != next {
		if err := o.db.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{"status": next, "updated_at": time.Now()}).Error; err != nil {
			zap.S().Errorf("error updating order %s: %v", order.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
			return
		}
		zap.L().Info("order status changed",
			zap.String("id", order.ID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(next)),
		)
	}

	var updated models.Order
	o.db.Preload("Items").Where("id = ?", order.ID).First(&updated)
	c.JSON(http.StatusOK, updated)
}

// DeliverStale marks every SHIPPING order last touched before now-DeliverAfter
// as DELIVERED and returns how many changed.
func (o *OrdersModule) DeliverStale(now time.Time) (int64, error) {
	result := o.db.Model(&models.Order{}).
		Where("status = ? AND updated_at < ?", models.StatusShipping, now.Add(-DeliverAfter)).
		Updates(map[string]interface{}{"status": models.StatusDelivered, "updated_at": now})
	return result.RowsAffected, result.Error
}

// Schedule runs DeliverStale every minute.
func (o *OrdersModule) Schedule(sched *cron.Cron) error {
	_, err := sched.AddFunc("@every 1m", func() {
		n, err := o.DeliverStale(time.Now())
		if err != nil {
			zap.S().Errorf("auto-deliver failed: %v", err)
			return
		}
		if n > 0 {
			zap.S().Infof("auto-delivered %d orders", n)
		}
	})
	return err
}
