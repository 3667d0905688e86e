// Package app assembles trialguard from its configuration.
//
// # Initialization Flow
//
//	1. Initialize OpenTelemetry and the trial metrics
//	2. Build the enabled sources in order: install, preferences, file
//	3. Open the preferences store and, when enabled, the backup dispatcher
//	4. Reconcile the trial start and persist it to every source
//
// # Usage
//
//	cfg, err := config.Load(configPath)
//	if err != nil {
//	    return err
//	}
//	application, err := app.New(ctx, cfg, logger, app.Options{})
//	if err != nil {
//	    return err
//	}
//	defer application.Close(ctx)
//
//	if application.Trial.IsFinishedNow() {
//	    // lock premium features
//	}
//
// Close waits for a backup started during reconciliation before releasing
// the store, so a short-lived process does not cut an upload short.
package app
