// Package recommend learns latent preference vectors from bid and visit
// history via matrix factorization, and ranks active items for a user from
// the persisted vectors.
package recommend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/PirrosBell/BidHub/internal/store"
)

var (
	// ErrNoTrainingData means the interaction matrix had no non-zero
	// entries; training halts without touching persisted matrices.
	ErrNoTrainingData = errors.New("no interaction data to train on")

	// ErrNumericDivergence means the validation loss became non-finite.
	// The run's updates are discarded rather than persisting corrupted
	// vectors.
	ErrNumericDivergence = errors.New("training loss diverged")

	// ErrNotTrained means no factor matrices have been persisted yet, or
	// the user has no assigned vector. Callers fall back to a
	// non-personalized ordering.
	ErrNotTrained = errors.New("no trained recommendation data")
)

// Interaction signal weights: a completed bid is a much stronger preference
// signal than a page visit.
const (
	bidWeight   = 3.0
	visitWeight = 1.0
)

// TrainOptions are the matrix factorization hyperparameters.
type TrainOptions struct {
	Factors        int     // latent factor dimension k
	Epochs         int     // maximum SGD epochs
	LearningRate   float64 // initial rate, decays per epoch
	Decay          float64 // rate decay: lr = initial / (1 + decay*epoch)
	Regularization float64 // L2 penalty
	Patience       int     // early-stop after this many non-improving epochs
	Seed           int64   // RNG seed, fixed for reproducible runs
}

// DefaultTrainOptions returns the tuned defaults.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Factors:        5,
		Epochs:         100,
		LearningRate:   0.01,
		Decay:          0.0001,
		Regularization: 0.001,
		Patience:       10,
		Seed:           42,
	}
}

// Clamping bounds. Predictions stay in the plausible score range, gradients
// cannot explode, and factor values stay positive so dot-product scores
// remain non-negative and comparable.
const (
	predClampLo   = 0.5
	predClampHi   = 6.0
	lossClampLo   = -10.0
	lossClampHi   = 10.0
	gradClamp     = 0.1
	factorClampLo = 0.001
	factorClampHi = 10.0
)

// TrainResult summarizes a completed training run.
type TrainResult struct {
	Users          int
	Items          int
	Samples        int
	Epochs         int
	ValidationRMSE float64
	EarlyStopped   bool
}

// sample is one known (user row, item column, weight) matrix entry.
type sample struct {
	user, item int
	weight     float64
}

// Train rebuilds the weighted interaction matrix from all bids and visits
// against non-cancelled items, assigns dense indices to every user and item
// (persisted back onto their records), factorizes the matrix by SGD and
// persists the two factor matrices atomically. Previously persisted matrices
// are left intact on any failure.
func Train(ctx context.Context, db *sql.DB, dataDir string, opts TrainOptions) (*TrainResult, error) {
	numUsers, numItems, samples, err := extract(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrNoTrainingData
	}

	var weightSum float64
	for _, s := range samples {
		weightSum += s.weight
	}
	meanWeight := weightSum / float64(len(samples))

	// Scale the uniform init so initial predictions land near the mean
	// observed weight.
	scale := math.Sqrt(meanWeight / float64(opts.Factors))

	rng := rand.New(rand.NewSource(opts.Seed))
	userFactors := NewUniformMatrix(numUsers, opts.Factors, 0.1, scale, rng)
	itemFactors := NewUniformMatrix(numItems, opts.Factors, 0.1, scale, rng)

	result := &TrainResult{Users: numUsers, Items: numItems, Samples: len(samples)}

	bestLoss := math.Inf(1)
	noImprovement := 0

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		// Reshuffle and re-split every epoch so validation does not
		// overfit to one holdout.
		epochRng := rand.New(rand.NewSource(opts.Seed + int64(epoch)))
		train, val := splitSamples(samples, epochRng)

		rate := opts.LearningRate / (1 + opts.Decay*float64(epoch))
		sgdEpoch(userFactors, itemFactors, train, rate, opts.Regularization, epochRng)

		loss := validationLoss(userFactors, itemFactors, val, opts.Regularization)
		if math.IsInf(loss, 0) || math.IsNaN(loss) {
			return nil, fmt.Errorf("epoch %d: %w", epoch+1, ErrNumericDivergence)
		}

		rmse := math.Sqrt(loss / float64(len(val)))
		result.Epochs = epoch + 1
		result.ValidationRMSE = rmse
		slog.Debug("training epoch finished", "epoch", epoch+1, "rmse", rmse, "rate", rate)

		if loss < bestLoss {
			bestLoss = loss
			noImprovement = 0
		} else {
			noImprovement++
		}
		if noImprovement >= opts.Patience {
			result.EarlyStopped = true
			break
		}
	}

	if err := SaveMatrices(dataDir, userFactors, itemFactors); err != nil {
		return nil, err
	}
	return result, nil
}

// extract builds the training samples and assigns dense indices to all
// current users and non-cancelled items.
func extract(ctx context.Context, db *sql.DB) (numUsers, numItems int, samples []sample, err error) {
	users, err := store.ListUsers(ctx, db)
	if err != nil {
		return 0, 0, nil, err
	}
	itemIDs, err := store.ListTrainingItemIDs(ctx, db)
	if err != nil {
		return 0, 0, nil, err
	}

	userIndex := make(map[int64]int64, len(users))
	for i, u := range users {
		userIndex[u.ID] = int64(i)
	}
	itemIndex := make(map[int64]int64, len(itemIDs))
	for i, id := range itemIDs {
		itemIndex[id] = int64(i)
	}

	if err := store.SetRecIndexes(ctx, db, userIndex, itemIndex); err != nil {
		return 0, 0, nil, err
	}

	bids, err := store.ListBidInteractions(ctx, db)
	if err != nil {
		return 0, 0, nil, err
	}
	visits, err := store.ListVisitInteractions(ctx, db)
	if err != nil {
		return 0, 0, nil, err
	}

	// Accumulate weights per (user, item) cell.
	weights := make(map[[2]int64]float64)
	add := func(interactions []store.Interaction, w float64) {
		for _, in := range interactions {
			u, okU := userIndex[in.UserID]
			i, okI := itemIndex[in.ItemID]
			if okU && okI {
				weights[[2]int64{u, i}] += w
			}
		}
	}
	add(bids, bidWeight)
	add(visits, visitWeight)

	samples = make([]sample, 0, len(weights))
	for cell, w := range weights {
		samples = append(samples, sample{user: int(cell[0]), item: int(cell[1]), weight: w})
	}
	// Map iteration order would leak into every epoch's shuffle and split;
	// row-major order keeps training reproducible for a fixed seed.
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].user != samples[j].user {
			return samples[i].user < samples[j].user
		}
		return samples[i].item < samples[j].item
	})
	return len(users), len(itemIDs), samples, nil
}

// splitSamples shuffles and splits 80/20 into train/validation. With too few
// samples to hold any out, the full set serves as both.
func splitSamples(samples []sample, rng *rand.Rand) (train, val []sample) {
	shuffled := make([]sample, len(samples))
	copy(shuffled, samples)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nVal := len(shuffled) / 5
	if nVal == 0 {
		return shuffled, shuffled
	}
	return shuffled[nVal:], shuffled[:nVal]
}

// sgdEpoch runs one pass of stochastic gradient descent over the training
// samples in a fresh random order.
func sgdEpoch(userFactors, itemFactors *Matrix, train []sample, rate, reg float64, rng *rand.Rand) {
	order := rng.Perm(len(train))
	for _, idx := range order {
		s := train[idx]
		u := userFactors.Row(s.user)
		v := itemFactors.Row(s.item)

		predicted := clamp(dot(u, v), predClampLo, predClampHi)
		err := s.weight - predicted

		for k := range u {
			gradU := clamp(-2*err*v[k]+2*reg*u[k], -gradClamp, gradClamp)
			gradV := clamp(-2*err*u[k]+2*reg*v[k], -gradClamp, gradClamp)
			u[k] -= rate * gradU
			v[k] -= rate * gradV
		}

		clampSlice(u, factorClampLo, factorClampHi)
		clampSlice(v, factorClampLo, factorClampHi)
	}
}

// validationLoss computes squared error over the holdout samples plus the L2
// regularization term. Returns +Inf on numeric divergence.
func validationLoss(userFactors, itemFactors *Matrix, val []sample, reg float64) float64 {
	var squaredError float64
	for _, s := range val {
		predicted := clamp(dot(userFactors.Row(s.user), itemFactors.Row(s.item)), lossClampLo, lossClampHi)
		diff := s.weight - predicted
		if math.IsNaN(diff) || math.IsInf(diff, 0) {
			return math.Inf(1)
		}
		squaredError += diff * diff
	}

	loss := squaredError + reg*(userFactors.SumSquares()+itemFactors.SumSquares())
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return math.Inf(1)
	}
	return loss
}
