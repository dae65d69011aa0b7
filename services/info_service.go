package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"time"

	"folio-tracker-service/cache"
	"folio-tracker-service/config"
	"folio-tracker-service/models"
	"folio-tracker-service/utils"

	"gorm.io/gorm"
)

const (
	statisticsCacheKey = "STATISTICS"
	statisticsCacheTTL = 1 * time.Hour
)

// Permission tags exposed in the info payload
const (
	PermissionEnableBlog         = "enableBlog"
	PermissionEnableSocialLogin  = "enableSocialLogin"
	PermissionEnableStatistics   = "enableStatistics"
	PermissionEnableSubscription = "enableSubscription"
)

var globalInfoService *InfoService

// SetGlobalInfoService sets the global info service instance
func SetGlobalInfoService(service *InfoService) {
	globalInfoService = service
}

// GetGlobalInfoService returns the global info service instance
func GetGlobalInfoService() *InfoService {
	return globalInfoService
}

// SubscriptionOffer describes a subscription offering configured via the
// SUBSCRIPTION_OFFER property
type SubscriptionOffer struct {
	Coupon       float64 `json:"coupon,omitempty"`
	DurationDays int     `json:"durationDays,omitempty"`
	Label        string  `json:"label,omitempty"`
	Price        float64 `json:"price"`
}

// InfoItem is the composite payload served to the front end. Statistics and
// subscriptions are omitted entirely when their feature flags are off.
type InfoItem struct {
	BaseCurrency      string               `json:"baseCurrency"`
	Currencies        []string             `json:"currencies"`
	DemoAuthToken     string               `json:"demoAuthToken"`
	GlobalPermissions []string             `json:"globalPermissions"`
	LastDataGathering *time.Time           `json:"lastDataGathering"`
	Platforms         []models.Platform    `json:"platforms"`
	PrimaryDataSource string               `json:"primaryDataSource"`
	Statistics        *models.Statistics   `json:"statistics,omitempty"`
	StripePublicKey   string               `json:"stripePublicKey,omitempty"`
	Subscriptions     *[]SubscriptionOffer `json:"subscriptions,omitempty"`
}

// Reusable HTTP client for the GitHub counters
var gitHubHTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}

type InfoService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewInfoService(db *gorm.DB, store cache.Store) *InfoService {
	return &InfoService{
		db:    db,
		cache: store,
	}
}

// GetInfo assembles the composite info payload
func (s *InfoService) GetInfo(ctx context.Context) (*InfoItem, error) {
	cfg := config.AppConfig

	permissions := []string{}
	if cfg.EnableFeatureBlog {
		permissions = append(permissions, PermissionEnableBlog)
	}
	if cfg.EnableFeatureSocialLogin {
		permissions = append(permissions, PermissionEnableSocialLogin)
	}
	if cfg.EnableFeatureStatistics {
		permissions = append(permissions, PermissionEnableStatistics)
	}
	if cfg.EnableFeatureSubscription {
		permissions = append(permissions, PermissionEnableSubscription)
	}

	var platforms []models.Platform
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&platforms).Error; err != nil {
		return nil, fmt.Errorf("failed to load platforms: %w", err)
	}

	currencies, err := s.getCurrencies(ctx)
	if err != nil {
		return nil, err
	}

	demoToken, err := utils.GenerateAuthToken(cfg.DemoUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign demo token: %w", err)
	}

	info := &InfoItem{
		BaseCurrency:      cfg.BaseCurrency,
		Currencies:        currencies,
		DemoAuthToken:     demoToken,
		GlobalPermissions: permissions,
		LastDataGathering: s.getLastDataGathering(ctx),
		Platforms:         platforms,
		PrimaryDataSource: cfg.PrimaryDataSource,
	}

	if cfg.EnableFeatureStatistics {
		statistics, err := s.getStatistics(ctx)
		if err != nil {
			return nil, err
		}
		info.Statistics = statistics
	}

	if cfg.EnableFeatureSubscription {
		subscriptions, err := s.getSubscriptions(ctx)
		if err != nil {
			return nil, err
		}
		info.StripePublicKey = cfg.StripePublishableKey
		info.Subscriptions = &subscriptions
	}

	return info, nil
}

// getCurrencies returns the base currency plus every currency appearing in
// persisted orders, sorted ascending.
func (s *InfoService) getCurrencies(ctx context.Context) ([]string, error) {
	var orderCurrencies []string
	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Distinct().
		Pluck("currency", &orderCurrencies).Error; err != nil {
		return nil, fmt.Errorf("failed to load currencies: %w", err)
	}

	seen := map[string]bool{config.AppConfig.BaseCurrency: true}
	currencies := []string{config.AppConfig.BaseCurrency}
	for _, currency := range orderCurrencies {
		if !seen[currency] {
			seen[currency] = true
			currencies = append(currencies, currency)
		}
	}
	sort.Strings(currencies)

	return currencies, nil
}

// getLastDataGathering reads the last-gathering timestamp property. A missing
// or unparseable property is reported as nil.
func (s *InfoService) getLastDataGathering(ctx context.Context) *time.Time {
	var property models.Property
	if err := s.db.WithContext(ctx).
		Where("key = ?", models.PropertyLastDataGathering).
		First(&property).Error; err != nil {
		return nil
	}

	timestamp, err := time.Parse(time.RFC3339, property.Value)
	if err != nil {
		log.Printf("Invalid %s property value %q: %v", models.PropertyLastDataGathering, property.Value, err)
		return nil
	}
	return &timestamp
}

// getSubscriptions reads the configured subscription offer. No offer
// configured means an empty list, not an absent one.
func (s *InfoService) getSubscriptions(ctx context.Context) ([]SubscriptionOffer, error) {
	subscriptions := []SubscriptionOffer{}

	var property models.Property
	err := s.db.WithContext(ctx).
		Where("key = ?", models.PropertySubscriptionOffer).
		First(&property).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return subscriptions, nil
		}
		return nil, fmt.Errorf("failed to load subscription offer: %w", err)
	}

	var offer SubscriptionOffer
	if err := json.Unmarshal([]byte(property.Value), &offer); err != nil {
		return nil, fmt.Errorf("failed to parse subscription offer: %w", err)
	}

	return append(subscriptions, offer), nil
}

// getStatistics serves statistics cache-aside: a parseable cached value wins,
// otherwise the counters are recomputed and written back under a fixed TTL.
func (s *InfoService) getStatistics(ctx context.Context) (*models.Statistics, error) {
	if raw, err := s.cache.Get(ctx, statisticsCacheKey); err == nil {
		var statistics models.Statistics
		if err := json.Unmarshal([]byte(raw), &statistics); err == nil {
			return &statistics, nil
		}
		// 缓存内容损坏时当作未命中，重新计算
	}

	statistics, err := s.computeStatistics(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(statistics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode statistics: %w", err)
	}
	if err := s.cache.Set(ctx, statisticsCacheKey, string(encoded), statisticsCacheTTL); err != nil {
		log.Printf("Error caching statistics: %v", err)
	}

	return statistics, nil
}

func (s *InfoService) computeStatistics(ctx context.Context) (*models.Statistics, error) {
	activeUsers1d, err := s.countActiveUsers(ctx, 1)
	if err != nil {
		return nil, err
	}
	activeUsers7d, err := s.countActiveUsers(ctx, 7)
	if err != nil {
		return nil, err
	}
	activeUsers30d, err := s.countActiveUsers(ctx, 30)
	if err != nil {
		return nil, err
	}
	newUsers30d, err := s.countNewUsers(ctx, 30)
	if err != nil {
		return nil, err
	}

	// The GitHub counters are best effort: a failed fetch is logged and the
	// value stays absent, it never fails the statistics computation.
	statistics := &models.Statistics{
		ActiveUsers1d:      activeUsers1d,
		ActiveUsers7d:      activeUsers7d,
		ActiveUsers30d:     activeUsers30d,
		NewUsers30d:        newUsers30d,
		GitHubContributors: s.fetchGitHubContributors(ctx),
		GitHubStargazers:   s.fetchGitHubStargazers(ctx),
	}

	return statistics, nil
}

// countActiveUsers counts users whose analytics record was touched within
// the last n days
func (s *InfoService) countActiveUsers(ctx context.Context, days int) (int64, error) {
	since := time.Now().AddDate(0, 0, -days)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Analytics{}).
		Where("updated_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active users (%dd): %w", days, err)
	}
	return count, nil
}

// countNewUsers counts users created within the last n days, restricted to
// those that have an analytics record
func (s *InfoService) countNewUsers(ctx context.Context, days int) (int64, error) {
	since := time.Now().AddDate(0, 0, -days)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN analytics ON analytics.user_id = users.id").
		Where("users.created_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count new users (%dd): %w", days, err)
	}
	return count, nil
}

var lastPagePattern = regexp.MustCompile(`[?&]page=(\d+)>; rel="last"`)

// fetchGitHubContributors reads the contributor count from the GitHub API.
// With per_page=1 the total is the page number of the "last" Link relation.
func (s *InfoService) fetchGitHubContributors(ctx context.Context) *int64 {
	endpoint := fmt.Sprintf("%s/repos/%s/contributors?per_page=1&anon=true",
		config.AppConfig.GitHubAPIBaseURL, config.AppConfig.GitHubRepository)

	body, header, err := s.fetchGitHub(ctx, endpoint)
	if err != nil {
		log.Printf("Error fetching GitHub contributors: %v", err)
		return nil
	}

	if matches := lastPagePattern.FindStringSubmatch(header.Get("Link")); matches != nil {
		if count, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			return &count
		}
	}

	// Single page of results, no Link header
	var contributors []json.RawMessage
	if err := json.Unmarshal(body, &contributors); err != nil {
		log.Printf("Error parsing GitHub contributors response: %v", err)
		return nil
	}
	count := int64(len(contributors))
	return &count
}

// fetchGitHubStargazers reads the stargazer count from the repository endpoint
func (s *InfoService) fetchGitHubStargazers(ctx context.Context) *int64 {
	endpoint := fmt.Sprintf("%s/repos/%s",
		config.AppConfig.GitHubAPIBaseURL, config.AppConfig.GitHubRepository)

	body, _, err := s.fetchGitHub(ctx, endpoint)
	if err != nil {
		log.Printf("Error fetching GitHub stargazers: %v", err)
		return nil
	}

	var repository struct {
		StargazersCount int64 `json:"stargazers_count"`
	}
	if err := json.Unmarshal(body, &repository); err != nil {
		log.Printf("Error parsing GitHub repository response: %v", err)
		return nil
	}
	return &repository.StargazersCount
}

func (s *InfoService) fetchGitHub(ctx context.Context, endpoint string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := gitHubHTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.Header, nil
}
