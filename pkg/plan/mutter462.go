// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plan

// PatchTag marks every replacement block. Its presence in a target file is
// how we recognize a tree that has already been patched.
const PatchTag = "VMWARE_CLIPBOARD_PATCH"

// Mutter462Version is the upstream version the built-in plan is locked to
// (Ubuntu 24.04 LTS ships it).
const Mutter462Version = "46.2"

// Mutter462 returns the built-in patch plan for mutter 46.2: it removes the
// Wayland focus checks that block clipboard and primary-selection access
// from unfocused clients, and widens the owner-change notifications to all
// clients instead of only the focused one. X11 never had these
// restrictions; VMware/VirtualBox guest integration and clipboard managers
// depend on their absence.
//
// Anchors are exact byte-for-byte excerpts of the 46.2 sources, with enough
// surrounding context to occur exactly once per file. Compare against
// https://gitlab.gnome.org/GNOME/mutter/-/blob/46.2/ when they stop
// matching.
func Mutter462() *Plan {
	return &Plan{
		Version: Mutter462Version,
		Marker:  PatchTag,
		Files: []TargetFile{
			{
				Path: "src/wayland/meta-wayland-data-device.c",
				Sentinels: []string{
					"data_device_set_selection",
					"owner_changed_cb",
					"meta_wayland_data_device_sync_focus",
					"meta_wayland_seat_get_input_focus_client (seat)",
					"&data_device->focus_resource_list",
				},
				Rules: []PatchRule{
					{
						Label:   "set_selection focus check",
						Anchor:  dataDeviceSetSelectionAnchor,
						Replace: dataDeviceSetSelectionReplace,
					},
					{
						Label:   "owner_changed_cb notify all clients",
						Anchor:  dataDeviceOwnerChangedAnchor,
						Replace: dataDeviceOwnerChangedReplace,
					},
				},
			},
			{
				Path: "src/wayland/meta-wayland-data-device-primary.c",
				Sentinels: []string{
					"primary_device_set_selection",
					"owner_changed_cb",
					"meta_wayland_data_device_primary_sync_focus",
					"meta_wayland_seat_get_input_focus_client (seat)",
					"&data_device->focus_resource_list",
				},
				Rules: []PatchRule{
					{
						Label:   "primary set_selection focus check",
						Anchor:  primarySetSelectionAnchor,
						Replace: primarySetSelectionReplace,
					},
					{
						Label:   "primary owner_changed_cb notify all clients",
						Anchor:  primaryOwnerChangedAnchor,
						Replace: primaryOwnerChangedReplace,
					},
				},
			},
		},
	}
}

// meta-wayland-data-device.c, data_device_set_selection(), lines 1064-1070
// in 46.2. The trailing FIXME comment pins the match to this one call site.
const dataDeviceSetSelectionAnchor = `  if (wl_resource_get_client (resource) !=
      meta_wayland_seat_get_input_focus_client (seat))
    {
      if (source)
        meta_wayland_data_source_cancel (source);
      return;
    }

  /* FIXME: Store serial`

const dataDeviceSetSelectionReplace = `  /* === ` + PatchTag + ` ===
   * REMOVED: Focus check that blocked clipboard writes from unfocused apps.
   * X11 never had this restriction. VMware, VirtualBox, clipboard managers
   * all depend on background clipboard access.
   * Original code (lines 1064-1070):
   *   if (wl_resource_get_client (resource) !=
   *       meta_wayland_seat_get_input_focus_client (seat))
   *     { if (source) meta_wayland_data_source_cancel (source); return; }
   * === /` + PatchTag + ` === */

  /* FIXME: Store serial`

// meta-wayland-data-device.c, owner_changed_cb(), lines 1107-1127 in 46.2.
// The original bails out when no client has focus and then only notifies
// focus_resource_list. Resources are split between resource_list (unfocused
// clients) and focus_resource_list (the focused one), so notifying everyone
// means iterating both.
const dataDeviceOwnerChangedAnchor = `  MetaWaylandSeat *seat = compositor->seat;
  struct wl_resource *data_device_resource;
  struct wl_client *focus_client;

  focus_client = meta_wayland_seat_get_input_focus_client (seat);
  if (!focus_client)
    return;

  if (selection_type == META_SELECTION_CLIPBOARD)
    {
      wl_resource_for_each (data_device_resource,
                            &data_device->focus_resource_list)
        {
          struct wl_resource *offer = NULL;

          if (new_owner)
            {
              offer = create_and_send_clipboard_offer (data_device,
                                                       data_device_resource);
            }

          wl_data_device_send_selection (data_device_resource, offer);
        }
    }
}`

const dataDeviceOwnerChangedReplace = `  MetaWaylandSeat *seat = compositor->seat;
  struct wl_resource *data_device_resource;

  /* === ` + PatchTag + ` ===
   * REMOVED: Focus check that blocked clipboard notifications to unfocused apps.
   * CHANGED: Now notify ALL clients, not just the focused one.
   * Resources are split between resource_list (unfocused) and focus_resource_list (focused),
   * so we must iterate BOTH lists to notify everyone.
   * Original code only iterated focus_resource_list.
   * === /` + PatchTag + ` === */

  if (selection_type == META_SELECTION_CLIPBOARD)
    {
      /* Notify unfocused clients (resource_list) */
      wl_resource_for_each (data_device_resource,
                            &data_device->resource_list)
        {
          struct wl_resource *offer = NULL;

          if (new_owner)
            {
              offer = create_and_send_clipboard_offer (data_device,
                                                       data_device_resource);
            }

          wl_data_device_send_selection (data_device_resource, offer);
        }

      /* Notify focused client (focus_resource_list) */
      wl_resource_for_each (data_device_resource,
                            &data_device->focus_resource_list)
        {
          struct wl_resource *offer = NULL;

          if (new_owner)
            {
              offer = create_and_send_clipboard_offer (data_device,
                                                       data_device_resource);
            }

          wl_data_device_send_selection (data_device_resource, offer);
        }
    }
}`

// meta-wayland-data-device-primary.c, primary_device_set_selection(),
// lines 184-190 in 46.2.
const primarySetSelectionAnchor = `  if (source_resource)
    source = wl_resource_get_user_data (source_resource);

  if (wl_resource_get_client (resource) !=
      meta_wayland_seat_get_input_focus_client (seat))
    {
      if (source)
        meta_wayland_data_source_cancel (source);
      return;
    }

  meta_wayland_data_device_primary_set_selection`

const primarySetSelectionReplace = `  if (source_resource)
    source = wl_resource_get_user_data (source_resource);

  /* === ` + PatchTag + ` ===
   * REMOVED: Focus check that blocked primary selection writes from unfocused apps.
   * X11 never had this restriction.
   * Original code (lines 184-190):
   *   if (wl_resource_get_client (resource) !=
   *       meta_wayland_seat_get_input_focus_client (seat))
   *     { if (source) meta_wayland_data_source_cancel (source); return; }
   * === /` + PatchTag + ` === */

  meta_wayland_data_device_primary_set_selection`

// meta-wayland-data-device-primary.c, owner_changed_cb(), lines 212-233
// in 46.2.
const primaryOwnerChangedAnchor = `  MetaWaylandSeat *seat = compositor->seat;
  struct wl_resource *data_device_resource;
  struct wl_client *focus_client;

  focus_client = meta_wayland_seat_get_input_focus_client (seat);
  if (!focus_client)
    return;

  if (selection_type == META_SELECTION_PRIMARY)
    {
      wl_resource_for_each (data_device_resource, &data_device->focus_resource_list)
        {
          struct wl_resource *offer = NULL;

          if (new_owner)
            {
              offer = create_and_send_primary_offer (data_device,
                                                     data_device_resource);
            }

          zwp_primary_selection_device_v1_send_selection (data_device_resource,
                                                          offer);
        }
    }
}`

const primaryOwnerChangedReplace = `  MetaWaylandSeat *seat = compositor->seat;
  struct wl_resource *data_device_resource;

  /* === ` + PatchTag + ` ===
   * REMOVED: Focus check that blocked primary selection notifications.
   * CHANGED: Now notify ALL clients, not just the focused one.
   * === /` + PatchTag + ` === */

  if (selection_type == META_SELECTION_PRIMARY)
    {
      /* Notify unfocused clients (resource_list) */
      wl_resource_for_each (data_device_resource, &data_device->resource_list)
        {
          struct wl_resource *offer = NULL;

          if (new_owner)
            {
              offer = create_and_send_primary_offer (data_device,
                                                     data_device_resource);
            }

          zwp_primary_selection_device_v1_send_selection (data_device_resource,
                                                          offer);
        }

      /* Notify focused client (focus_resource_list) */
      wl_resource_for_each (data_device_resource, &data_device->focus_resource_list)
        {
          struct wl_resource *offer = NULL;

          if (new_owner)
            {
              offer = create_and_send_primary_offer (data_device,
                                                     data_device_resource);
            }

          zwp_primary_selection_device_v1_send_selection (data_device_resource,
                                                          offer);
        }
    }
}`
