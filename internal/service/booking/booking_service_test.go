package booking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockClassRepository struct {
	mock.Mock
}

func (m *MockClassRepository) ListUpcoming(ctx context.Context, from time.Time) ([]domain.FitnessClass, error) {
	args := m.Called(ctx, from)
	return args.Get(0).([]domain.FitnessClass), args.Error(1)
}

func (m *MockClassRepository) GetByID(ctx context.Context, id int64) (*domain.FitnessClass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FitnessClass), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func futureClass(id int64, available int) *domain.FitnessClass {
	return &domain.FitnessClass{
		ID:             id,
		Name:           "Yoga",
		DateTime:       time.Now().Add(24 * time.Hour),
		Instructor:     "Jane Doe",
		TotalSlots:     10,
		AvailableSlots: available,
	}
}

func TestBookingService_Create_Success(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockClassRepo := &MockClassRepository{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop(),
		WithProducer(mockProducer, "booking_events"))

	ctx := context.Background()
	input := CreateBookingInput{
		ClassID:     4,
		ClientName:  "Test User",
		ClientEmail: "test@example.com",
	}

	mockClassRepo.On("GetByID", ctx, int64(4)).Return(futureClass(4, 10), nil).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.ID = 17
			b.BookingTime = time.Now()
		}).
		Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking_events", "17", mock.Anything).Return(nil).Once()

	booking, err := service.Create(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Equal(t, int64(17), booking.ID)
	assert.Equal(t, input.ClassID, booking.ClassID)
	assert.Equal(t, input.ClientEmail, booking.ClientEmail)

	mockClassRepo.AssertExpectations(t)
	mockBookingRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_Create_ValidationErrors(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockClassRepo := &MockClassRepository{}
	service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop())

	ctx := context.Background()

	testCases := []struct {
		name  string
		input CreateBookingInput
	}{
		{
			name:  "Empty client name",
			input: CreateBookingInput{ClassID: 4, ClientName: "  ", ClientEmail: "test@example.com"},
		},
		{
			name:  "Empty client email",
			input: CreateBookingInput{ClassID: 4, ClientName: "Test User", ClientEmail: ""},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			booking, err := service.Create(ctx, tc.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Nil(t, booking)
		})
	}

	mockClassRepo.AssertNotCalled(t, "GetByID")
	mockBookingRepo.AssertNotCalled(t, "Create")
}

func TestBookingService_Create_ClassNotFound(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockClassRepo := &MockClassRepository{}
	service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop())

	ctx := context.Background()
	mockClassRepo.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrClassNotFound).Once()

	booking, err := service.Create(ctx, CreateBookingInput{
		ClassID:     99,
		ClientName:  "Test User",
		ClientEmail: "test@example.com",
	})

	assert.ErrorIs(t, err, domain.ErrClassNotFound)
	assert.Nil(t, booking)
	mockBookingRepo.AssertNotCalled(t, "Create")
}

func TestBookingService_Create_ClassExpired(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockClassRepo := &MockClassRepository{}
	service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop())

	ctx := context.Background()
	past := futureClass(4, 10)
	past.DateTime = time.Now().Add(-time.Hour)
	mockClassRepo.On("GetByID", ctx, int64(4)).Return(past, nil).Once()

	booking, err := service.Create(ctx, CreateBookingInput{
		ClassID:     4,
		ClientName:  "Test User",
		ClientEmail: "test@example.com",
	})

	assert.ErrorIs(t, err, domain.ErrClassExpired)
	assert.Nil(t, booking)
	mockBookingRepo.AssertNotCalled(t, "Create")
}

func TestBookingService_Create_RepositoryRejections(t *testing.T) {
	testCases := []struct {
		name    string
		repoErr error
	}{
		{name: "No slots", repoErr: domain.ErrNoSlots},
		{name: "Duplicate booking", repoErr: domain.ErrDuplicateBooking},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockBookingRepo := &MockBookingRepository{}
			mockClassRepo := &MockClassRepository{}
			mockProducer := &MockProducer{}
			service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop(),
				WithProducer(mockProducer, "booking_events"))

			ctx := context.Background()
			mockClassRepo.On("GetByID", ctx, int64(4)).Return(futureClass(4, 1), nil).Once()
			mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(tc.repoErr).Once()

			booking, err := service.Create(ctx, CreateBookingInput{
				ClassID:     4,
				ClientName:  "Test User",
				ClientEmail: "test@example.com",
			})

			assert.ErrorIs(t, err, tc.repoErr)
			assert.Nil(t, booking)
			mockProducer.AssertNotCalled(t, "Publish")
		})
	}
}

func TestBookingService_Cancel(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockClassRepo := &MockClassRepository{}
	mockProducer := &MockProducer{}
	service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop(),
		WithProducer(mockProducer, "booking_events"))

	ctx := context.Background()
	cancelled := &domain.Booking{ID: 7, ClassID: 4, ClientEmail: "test@example.com"}
	mockBookingRepo.On("Cancel", ctx, int64(7)).Return(cancelled, nil).Once()
	mockProducer.On("Publish", ctx, "booking_events", "7", mock.Anything).Return(nil).Once()

	err := service.Cancel(ctx, 7)

	assert.NoError(t, err)
	mockBookingRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_Cancel_NotFound(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockClassRepo := &MockClassRepository{}
	service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop())

	ctx := context.Background()
	mockBookingRepo.On("Cancel", ctx, int64(404)).Return(nil, domain.ErrBookingNotFound).Once()

	err := service.Cancel(ctx, 404)

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingService_ListForClient_EmptyEmail(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockClassRepo := &MockClassRepository{}
	service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop())

	bookings, err := service.ListForClient(context.Background(), "")

	assert.NoError(t, err)
	assert.Empty(t, bookings)
	mockBookingRepo.AssertNotCalled(t, "ListByEmail")
}

func TestBookingService_ListForClient(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockClassRepo := &MockClassRepository{}
	service := NewBookingService(mockBookingRepo, mockClassRepo, zap.NewNop())

	ctx := context.Background()
	expected := []domain.Booking{{ID: 2}, {ID: 1}}
	mockBookingRepo.On("ListByEmail", ctx, "test@example.com").Return(expected, nil).Once()

	bookings, err := service.ListForClient(ctx, "test@example.com")

	assert.NoError(t, err)
	assert.Equal(t, expected, bookings)
}

// memoryRegistry models the transactional semantics of the Postgres
// repositories: one lock per registry plays the role of the class row lock,
// so the duplicate, capacity, and counter updates are indivisible.
type memoryRegistry struct {
	mu       sync.Mutex
	class    domain.FitnessClass
	nextID   int64
	bookings map[int64]domain.Booking
}

func newMemoryRegistry(class domain.FitnessClass) *memoryRegistry {
	return &memoryRegistry{class: class, bookings: make(map[int64]domain.Booking)}
}

func (m *memoryRegistry) GetByID(ctx context.Context, id int64) (*domain.FitnessClass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != m.class.ID {
		return nil, domain.ErrClassNotFound
	}
	c := m.class
	return &c, nil
}

func (m *memoryRegistry) ListUpcoming(ctx context.Context, from time.Time) ([]domain.FitnessClass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.class.DateTime.Before(from) || m.class.AvailableSlots == 0 {
		return []domain.FitnessClass{}, nil
	}
	return []domain.FitnessClass{m.class}, nil
}

func (m *memoryRegistry) Create(ctx context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ClassID != m.class.ID {
		return domain.ErrClassNotFound
	}
	if m.class.DateTime.Before(time.Now()) {
		return domain.ErrClassExpired
	}
	for _, existing := range m.bookings {
		if existing.ClassID == b.ClassID && existing.ClientEmail == b.ClientEmail {
			return domain.ErrDuplicateBooking
		}
	}
	if m.class.AvailableSlots == 0 {
		return domain.ErrNoSlots
	}
	m.class.AvailableSlots--
	m.nextID++
	b.ID = m.nextID
	b.BookingTime = time.Now()
	m.bookings[b.ID] = *b
	return nil
}

func (m *memoryRegistry) Cancel(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if m.class.AvailableSlots >= m.class.TotalSlots {
		return nil, domain.ErrSlotOverflow
	}
	delete(m.bookings, bookingID)
	m.class.AvailableSlots++
	return &b, nil
}

func (m *memoryRegistry) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Booking, 0)
	for _, b := range m.bookings {
		if b.ClientEmail == email {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingTime.After(out[j].BookingTime) })
	return out, nil
}

func (m *memoryRegistry) available() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.class.AvailableSlots
}

func (m *memoryRegistry) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

// With N slots and N+K concurrent requests from distinct clients, exactly N
// must succeed and the counter must land on zero.
func TestBookingService_Create_ConcurrentOversell(t *testing.T) {
	const slots = 5
	const extra = 4

	registry := newMemoryRegistry(domain.FitnessClass{
		ID:             1,
		Name:           "Yoga",
		DateTime:       time.Now().Add(24 * time.Hour),
		Instructor:     "Jane Doe",
		TotalSlots:     slots,
		AvailableSlots: slots,
	})
	service := NewBookingService(registry, registry, zap.NewNop())

	ctx := context.Background()
	emails := []string{
		"a@example.com", "b@example.com", "c@example.com",
		"d@example.com", "e@example.com", "f@example.com",
		"g@example.com", "h@example.com", "i@example.com",
	}

	results := make(chan error, slots+extra)
	var wg sync.WaitGroup
	for _, email := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, err := service.Create(ctx, CreateBookingInput{
				ClassID:     1,
				ClientName:  "Client",
				ClientEmail: email,
			})
			results <- err
		}(email)
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrNoSlots)
			rejected++
		}
	}

	assert.Equal(t, slots, succeeded)
	assert.Equal(t, extra, rejected)
	assert.Equal(t, 0, registry.available())
	assert.Equal(t, slots, registry.count())
}

func TestBookingService_Create_DuplicateLeavesStateUnchanged(t *testing.T) {
	registry := newMemoryRegistry(domain.FitnessClass{
		ID:             1,
		DateTime:       time.Now().Add(24 * time.Hour),
		TotalSlots:     10,
		AvailableSlots: 10,
	})
	service := NewBookingService(registry, registry, zap.NewNop())

	ctx := context.Background()
	input := CreateBookingInput{ClassID: 1, ClientName: "Test User", ClientEmail: "test@example.com"}

	_, err := service.Create(ctx, input)
	assert.NoError(t, err)

	_, err = service.Create(ctx, input)
	assert.ErrorIs(t, err, domain.ErrDuplicateBooking)
	assert.Equal(t, 9, registry.available())
	assert.Equal(t, 1, registry.count())
}

func TestBookingService_CreateThenCancel_RestoresSlots(t *testing.T) {
	registry := newMemoryRegistry(domain.FitnessClass{
		ID:             1,
		DateTime:       time.Now().Add(24 * time.Hour),
		TotalSlots:     10,
		AvailableSlots: 10,
	})
	service := NewBookingService(registry, registry, zap.NewNop())

	ctx := context.Background()
	booking, err := service.Create(ctx, CreateBookingInput{
		ClassID:     1,
		ClientName:  "Test User",
		ClientEmail: "test@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, 9, registry.available())

	err = service.Cancel(ctx, booking.ID)
	assert.NoError(t, err)
	assert.Equal(t, 10, registry.available())
	assert.Equal(t, 0, registry.count())
}

func TestBookingService_Cancel_OverReleaseSurfaces(t *testing.T) {
	registry := newMemoryRegistry(domain.FitnessClass{
		ID:             1,
		DateTime:       time.Now().Add(24 * time.Hour),
		TotalSlots:     10,
		AvailableSlots: 10,
	})
	// A booking record with no slot taken models a double release.
	registry.bookings[42] = domain.Booking{ID: 42, ClassID: 1, ClientEmail: "stale@example.com"}
	service := NewBookingService(registry, registry, zap.NewNop())

	err := service.Cancel(context.Background(), 42)

	assert.ErrorIs(t, err, domain.ErrSlotOverflow)
	assert.Equal(t, 10, registry.available())
}
