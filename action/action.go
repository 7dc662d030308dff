// Package action implements the tabular-preprocessing action catalog (C3):
// feature selection by R², PCA via QR, oversampling (SMOTE/Borderline-SMOTE/
// random), undersampling (Tomek links/random), and isolation-forest outlier
// removal. Every action follows the same Build/Run contract: Build fits
// state from the training package, Run transforms any package (training or
// validation) using that fitted state.
package action

import (
	"github.com/wlattner/automl/data"
)

// Action is the uniform contract every preprocessing step implements.
type Action interface {
	// ID returns a short code identifying the action, e.g. "FS", "PCA".
	ID() string
	// Build fits state from the training package. An action whose
	// configuration is invalid marks itself invalid and Run becomes the
	// identity transform.
	Build(train *data.Package) error
	// Run transforms pkg using the state fitted by Build.
	Run(pkg *data.Package) (*data.Package, error)
	// Parameters returns the effective hyperparameter map as used.
	Parameters() map[string]interface{}
}

// FeatureSpaceAction is implemented by actions that only touch the feature
// space (FS, PCA) and are therefore safe to apply to a validation package
// during final pipeline evaluation (oversampling/
// undersampling/isolation-forest must never be applied to validation).
type FeatureSpaceAction interface {
	Action
	IsFeatureSpaceAction() bool
}
