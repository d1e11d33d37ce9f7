// Package crossval trains ensembles of simple predictive models with
// repeated k-fold cross-validation and combines their outputs under learned
// reliability weights.
//
// A Builder splits a labeled sample bundle into folds, drives one training
// run per fold and member configuration through a Driver, and collects the
// trained members into a Cluster. On finalization the cluster derives a
// normalized weight per member from its held-out statistics; at inference
// time member outputs are combined per the bundle's output kind (weighted
// mean for continuous outputs, log-odds pooling for probabilities).
//
// Clusters compose: a Chain feeds each stage's raw member outputs to the
// next stage as extra input features, and BuildStack trains a second-level
// corrective ensemble on a finalized cluster's own outputs.
//
// The engine is single-threaded and deterministic: all randomness flows from
// the one rand source in Settings, so equal seeds and data reproduce member
// weights bit for bit. Concrete models and trainers are external; see the
// model subpackage for ready-made least-squares and logistic collaborators.
package crossval
