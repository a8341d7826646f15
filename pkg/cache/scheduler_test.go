package cache

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/terrycain/image-cache-server/pkg/e"
	"github.com/terrycain/image-cache-server/pkg/s"
)

func TestTickRefreshesFullAndKnownFolders(t *testing.T) {
	ctrl, gw, store := getStore(t)
	defer ctrl.Finish()

	gw.EXPECT().ListAll(gomock.Any(), "a").Return(entries("a/1.jpg"), nil)
	gw.EXPECT().ListAll(gomock.Any(), "b").Return(entries("b/1.jpg"), nil)
	if err := store.RefreshFolder(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if err := store.RefreshFolder(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}

	gw.EXPECT().ListAll(gomock.Any(), "").Return(entries("a/1.jpg", "a/2.jpg", "b/1.jpg"), nil).Times(1)
	gw.EXPECT().ListAll(gomock.Any(), "a").Return(entries("a/1.jpg", "a/2.jpg"), nil).Times(1)
	gw.EXPECT().ListAll(gomock.Any(), "b").Return(entries("b/1.jpg"), nil).Times(1)

	scheduler := NewScheduler(store, time.Hour)
	scheduler.Tick()
	store.Wait()

	if diff := cmp.Diff(3, len(store.GetFull())); diff != "" {
		t.Fatal(diff)
	}
	folder, _ := store.GetFolder("a")
	if diff := cmp.Diff(entries("a/1.jpg", "a/2.jpg"), folder); diff != "" {
		t.Fatal(diff)
	}
}

func TestTickFolderFailureIsIsolated(t *testing.T) {
	ctrl, gw, store := getStore(t)
	defer ctrl.Finish()

	gw.EXPECT().ListAll(gomock.Any(), "a").Return(entries("a/1.jpg"), nil)
	gw.EXPECT().ListAll(gomock.Any(), "b").Return(entries("b/1.jpg"), nil)
	_ = store.RefreshFolder(context.Background(), "a")
	_ = store.RefreshFolder(context.Background(), "b")

	release := make(chan struct{})
	gw.EXPECT().ListAll(gomock.Any(), "").Return(entries("a/9.jpg"), nil)
	gw.EXPECT().ListAll(gomock.Any(), "a").Return(nil, e.ErrStoreUnavailable)
	gw.EXPECT().ListAll(gomock.Any(), "b").
		DoAndReturn(func(ctx context.Context, prefix string) ([]s.ObjectEntry, error) {
			<-release
			return entries("b/1.jpg", "b/2.jpg"), nil
		})

	NewScheduler(store, time.Hour).Tick()

	// The full listing lands even though folder b is still listing.
	deadline := time.Now().Add(5 * time.Second)
	for len(store.GetFull()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if diff := cmp.Diff(entries("a/9.jpg"), store.GetFull()); diff != "" {
		t.Fatal(diff)
	}

	close(release)
	store.Wait()

	folderA, _ := store.GetFolder("a")
	if diff := cmp.Diff(entries("a/1.jpg"), folderA); diff != "" {
		t.Fatal(diff)
	}
	folderB, _ := store.GetFolder("b")
	if diff := cmp.Diff(entries("b/1.jpg", "b/2.jpg"), folderB); diff != "" {
		t.Fatal(diff)
	}
}

func TestStartRefreshesImmediately(t *testing.T) {
	ctrl, gw, store := getStore(t)
	defer ctrl.Finish()

	gw.EXPECT().ListAll(gomock.Any(), "").Return(entries("a/1.jpg"), nil).Times(1)

	scheduler := NewScheduler(store, time.Hour)
	scheduler.Start()
	<-scheduler.Stop().Done()
	store.Wait()

	if diff := cmp.Diff(entries("a/1.jpg"), store.GetFull()); diff != "" {
		t.Fatal(diff)
	}
}

func TestSchedulerTicksOnInterval(t *testing.T) {
	ctrl, gw, store := getStore(t)
	defer ctrl.Finish()

	ticked := make(chan struct{}, 10)
	gw.EXPECT().ListAll(gomock.Any(), "").
		DoAndReturn(func(ctx context.Context, prefix string) ([]s.ObjectEntry, error) {
			ticked <- struct{}{}
			return entries("a/1.jpg"), nil
		}).
		MinTimes(2)

	scheduler := NewScheduler(store, time.Second)
	scheduler.Start()

	for i := 0; i < 2; i++ {
		select {
		case <-ticked:
		case <-time.After(5 * time.Second):
			t.Fatal("Timed out waiting for scheduled refresh")
		}
	}

	<-scheduler.Stop().Done()
	store.Wait()
}
